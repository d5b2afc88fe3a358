package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// OrderService описывает операции конвейера оформления, нужные HTTP-слою.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID string, requested []domain.RequestedLine) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error)
}

// Handler обрабатывает HTTP-запросы API заказов.
type Handler struct {
	service OrderService
	logger  *log.Entry
}

// NewHandler создаёт HTTP-handler поверх сервиса заказов.
func NewHandler(service OrderService) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithField("component", "http-handler"),
	}
}

type createOrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID string                   `json:"customer_id"`
	Products   []createOrderLineRequest `json:"products"`
}

type orderLineResponse struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customer_id"`
	Status      string              `json:"status"`
	AmountMinor int64               `json:"amount_minor"`
	Lines       []orderLineResponse `json:"lines"`
	CreatedAt   time.Time           `json:"created_at"`
}

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// CreateOrder обрабатывает POST /api/v1/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid json", nil)
		return
	}

	lines := make([]domain.RequestedLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, domain.RequestedLine{
			ProductID: p.ProductID,
			Qty:       p.Quantity,
		})
	}

	placed, err := h.service.CreateOrder(r.Context(), req.CustomerID, lines)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(placed))
}

// GetOrder обрабатывает GET /api/v1/orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if err := uuid.Validate(orderID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "order id must be a valid uuid", nil)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListCustomerOrders обрабатывает GET /api/v1/customers/{customerID}/orders.
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	orders, err := h.service.ListOrdersByCustomer(r.Context(), customerID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": result})
}

// writeServiceError переводит доменные ошибки в HTTP-статусы.
// Нарушение контракта запроса отличимо от нехватки остатков и от сбоев
// хранилища, чтобы клиент мог решить, повторять ли запрос.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var invalidErr *domain.InvalidRequestError
	if errors.As(err, &invalidErr) {
		writeError(w, http.StatusBadRequest, "invalid_request", invalidErr.Reason, nil)
		return
	}

	var notFoundErr *domain.ProductsNotFoundError
	if errors.As(err, &notFoundErr) {
		writeError(w, http.StatusNotFound, "products_not_found", err.Error(), map[string]any{
			"product_ids": notFoundErr.ProductIDs,
		})
		return
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error(), map[string]any{
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
		return
	}

	var partialErr *domain.PartialFailureError
	if errors.As(err, &partialErr) {
		h.logger.WithError(err).Error("partial failure: stock decremented without persisted order")
		writeError(w, http.StatusInternalServerError, "partial_failure", "order was not persisted and stock compensation failed", map[string]any{
			"product_ids": partialErr.ProductIDs,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", "customer does not exist", nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "order does not exist", nil)
	default:
		h.logger.WithError(err).Error("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:  line.ProductID,
			Qty:        line.Qty,
			PriceMinor: line.PriceMinor,
		})
	}

	return orderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		AmountMinor: order.AmountMinor,
		Lines:       lines,
		CreatedAt:   order.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
