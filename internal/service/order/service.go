package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Типы событий, которые конвейер оформления кладёт в transactional outbox.
const (
	EventTypeOrderPlaced = "order.placed"

	aggregateTypeOrder = "order"
)

// Service реализует размещение заказа поверх репозиториев клиентов,
// каталога и заказов. Единственный владелец межсущностных инвариантов:
// проверка количества, снапшот цены, недопущение частичного списания.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger для сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithOutbox включает публикацию событий через transactional outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics включает метрики конвейера оформления.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService конструирует сервис с зависимостями. Клиенты, каталог и заказы
// передаются явно; outbox и метрики опциональны.
func NewService(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	options ...Option,
) *Service {
	s := &Service{
		customers: customers,
		products:  products,
		orders:    orders,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-service")
	}
	return s
}

// CreateOrder проверяет запрос, списывает остатки и сохраняет заказ.
//
// Порядок проверок фиксирован контрактом: сначала существование клиента,
// затем наличие всех товаров, затем достаточность остатков по позициям в
// порядке подачи. Все проверки выполняются до какой-либо записи.
//
// Порядок записей: сначала условное списание остатков, затем сохранение
// заказа. Если сохранение не удалось, списание компенсируется; заказ
// никогда не существует без обеспеченных остатков.
func (s *Service) CreateOrder(_ context.Context, customerID string, requested []domain.RequestedLine) (domain.Order, error) {
	started := time.Now()

	if err := validateRequest(customerID, requested); err != nil {
		s.reject(metrics.RejectReasonInvalidRequest)
		return domain.Order{}, err
	}

	customer, err := s.customers.FindByID(customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.reject(metrics.RejectReasonCustomerNotFound)
			return domain.Order{}, err
		}
		s.reject(metrics.RejectReasonStoreFailure)
		return domain.Order{}, fmt.Errorf("find customer %s: %w", customerID, err)
	}

	ids := make([]string, 0, len(requested))
	for _, line := range requested {
		ids = append(ids, line.ProductID)
	}

	found, err := s.products.FindByIDs(ids)
	if err != nil {
		s.reject(metrics.RejectReasonStoreFailure)
		return domain.Order{}, fmt.Errorf("find products: %w", err)
	}

	// Индекс по id: дальше все сопоставления за O(1), независимо от числа позиций.
	byID := make(map[string]domain.Product, len(found))
	for _, product := range found {
		byID[product.ID] = product
	}

	if len(byID) != len(ids) {
		missing := make([]string, 0, len(ids)-len(byID))
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		s.reject(metrics.RejectReasonProductsNotFound)
		return domain.Order{}, &domain.ProductsNotFoundError{ProductIDs: missing}
	}

	now := time.Now().UTC()
	lines := make([]domain.OrderLine, 0, len(requested))
	decrements := make([]domain.StockDecrement, 0, len(requested))
	var amountSum int64

	// Позиции обходим в порядке подачи: первое нарушение по остаткам
	// детерминированно указывает на первую проблемную позицию.
	for _, line := range requested {
		product, ok := byID[line.ProductID]
		if !ok {
			// Подстраховка на случай каталога, вернувшего лишние или чужие
			// записи: по счётчику выше сюда попадать не должны.
			s.reject(metrics.RejectReasonProductsNotFound)
			return domain.Order{}, &domain.ProductsNotFoundError{ProductIDs: []string{line.ProductID}}
		}
		if product.Quantity < line.Qty {
			s.reject(metrics.RejectReasonInsufficientStock)
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: line.Qty,
				Available: product.Quantity,
			}
		}

		lines = append(lines, domain.OrderLine{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			Qty:        line.Qty,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
		decrements = append(decrements, domain.StockDecrement{
			ProductID: product.ID,
			Qty:       line.Qty,
		})
		amountSum += int64(line.Qty) * product.PriceMinor
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		Status:      domain.OrderStatusPlaced,
		AmountMinor: amountSum,
		Lines:       lines,
		CreatedAt:   now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.reject(metrics.RejectReasonInvalidRequest)
		return domain.Order{}, &domain.InvalidRequestError{Reason: joinErrors(errs)}
	}

	// Сначала обеспечиваем остатки. Условное списание в хранилище атомарно
	// относительно конкурентных заказов: при гонке проигравший получает
	// InsufficientStockError, а не отрицательный остаток.
	if err := s.products.DecrementQuantities(decrements); err != nil {
		if domain.IsStockShortage(err) {
			s.reject(metrics.RejectReasonInsufficientStock)
			return domain.Order{}, err
		}
		s.reject(metrics.RejectReasonStoreFailure)
		return domain.Order{}, fmt.Errorf("decrement stock: %w", err)
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order after stock reserve")
		return domain.Order{}, s.compensate(order, decrements, err)
	}

	s.enqueueOrderPlaced(order)

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
		s.metrics.RecordStockReserved(totalUnits(decrements))
		s.metrics.RecordPlaceDuration(time.Since(started))
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor,
	}).Info("order placed")

	return order, nil
}

// GetOrder возвращает ранее сохранённый заказ. Чистое чтение без побочных
// эффектов, безопасно для повторов и конкурентных вызовов.
func (s *Service) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, &domain.InvalidRequestError{Reason: "order_id is required"}
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

// ListOrdersByCustomer возвращает заказы клиента, новые первыми.
func (s *Service) ListOrdersByCustomer(_ context.Context, customerID string, limit int) ([]domain.Order, error) {
	if customerID == "" {
		return nil, &domain.InvalidRequestError{Reason: "customer_id is required"}
	}

	orders, err := s.orders.ListByCustomer(customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// compensate возвращает списанные остатки после неудачной записи заказа.
// Если компенсация тоже не удалась, наружу уходит PartialFailureError:
// остатки занижены без заказа, нужна ручная сверка.
func (s *Service) compensate(order domain.Order, decrements []domain.StockDecrement, cause error) error {
	if restoreErr := s.products.RestoreQuantities(decrements); restoreErr != nil {
		ids := make([]string, 0, len(decrements))
		for _, dec := range decrements {
			ids = append(ids, dec.ProductID)
		}
		s.logger.WithError(restoreErr).WithField("order_id", order.ID).Error("stock compensation failed, manual reconciliation required")
		return &domain.PartialFailureError{
			ProductIDs:      ids,
			Cause:           cause,
			CompensationErr: restoreErr,
		}
	}

	if s.metrics != nil {
		s.metrics.RecordStockCompensation()
	}
	s.reject(metrics.RejectReasonStoreFailure)
	return fmt.Errorf("persist order: %w", cause)
}

// enqueueOrderPlaced кладёт событие в outbox; публикацией и retry владеет worker.
func (s *Service) enqueueOrderPlaced(order domain.Order) {
	if s.outbox == nil {
		return
	}

	type placedLine struct {
		ProductID  string `json:"product_id"`
		Qty        int32  `json:"qty"`
		PriceMinor int64  `json:"price_minor"`
	}
	lines := make([]placedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, placedLine{
			ProductID:  line.ProductID,
			Qty:        line.Qty,
			PriceMinor: line.PriceMinor,
		})
	}

	payload, err := json.Marshal(map[string]any{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"amount_minor": order.AmountMinor,
		"lines":        lines,
		"placed_at":    order.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order.placed event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     EventTypeOrderPlaced,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order.placed event failed")
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}
}

// validateRequest отсекает синтаксически некорректные запросы до любых
// обращений к хранилищам. Дубль товара в запросе отклоняется, не склеивается.
func validateRequest(customerID string, requested []domain.RequestedLine) error {
	if customerID == "" {
		return &domain.InvalidRequestError{Reason: "customer_id is required"}
	}
	if len(requested) == 0 {
		return &domain.InvalidRequestError{Reason: "order must contain at least one line"}
	}

	seen := make(map[string]bool, len(requested))
	for idx, line := range requested {
		if line.ProductID == "" {
			return &domain.InvalidRequestError{Reason: fmt.Sprintf("line[%d].product_id is required", idx)}
		}
		if line.Qty <= 0 {
			return &domain.InvalidRequestError{Reason: fmt.Sprintf("line[%d].qty must be > 0", idx)}
		}
		if seen[line.ProductID] {
			return &domain.InvalidRequestError{Reason: fmt.Sprintf("duplicate product %s in request", line.ProductID)}
		}
		seen[line.ProductID] = true
	}

	return nil
}

func totalUnits(decrements []domain.StockDecrement) int64 {
	var total int64
	for _, dec := range decrements {
		total += int64(dec.Qty)
	}
	return total
}

func joinErrors(errs []error) string {
	builder := strings.Builder{}
	for i, err := range errs {
		builder.WriteString(err.Error())
		if i < len(errs)-1 {
			builder.WriteString("; ")
		}
	}
	return builder.String()
}
