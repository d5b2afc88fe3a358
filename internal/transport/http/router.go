package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vladislavdragonenkov/checkout/internal/health"
)

// NewRouter собирает chi-router сервиса: публичный API заказов плюс probes.
func NewRouter(handler *Handler, healthHandler *health.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", health.LivenessHandler)
	if healthHandler != nil {
		r.Get("/health", healthHandler.ServeHTTP)
		r.Get("/readyz", healthHandler.ReadinessHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", handler.CreateOrder)
		r.Get("/orders/{orderID}", handler.GetOrder)
		r.Get("/customers/{customerID}/orders", handler.ListCustomerOrders)
	})

	return r
}
