package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	ordersvc "github.com/vladislavdragonenkov/checkout/internal/service/order"
	outboxsvc "github.com/vladislavdragonenkov/checkout/internal/service/outbox"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

// capturingPublisher собирает опубликованные сообщения вместо брокера.
type capturingPublisher struct {
	mu       sync.Mutex
	messages []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) published() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxMessage(nil), p.messages...)
}

// OrderLifecycleTestSuite тестирует полный путь оформления заказа:
// размещение, чтение, списание остатков и публикацию события через outbox.
type OrderLifecycleTestSuite struct {
	suite.Suite
	customers *memory.CustomerRepository
	products  *memory.ProductRepository
	outbox    domain.OutboxRepository
	publisher *capturingPublisher
	service   *ordersvc.Service
	worker    *outboxsvc.Worker
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.customers = memory.NewCustomerRepository()
	suite.products = memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	suite.outbox = memory.NewOutboxRepository()
	suite.publisher = &capturingPublisher{}

	suite.customers.Put(domain.Customer{ID: "customer-123", Name: "Иван", Email: "ivan@example.com"})
	suite.products.Put(domain.Product{ID: "laptop-pro", Name: "Ноутбук", PriceMinor: 199900, Quantity: 5})
	suite.products.Put(domain.Product{ID: "mouse-wireless", Name: "Мышь", PriceMinor: 4999, Quantity: 10})

	suite.service = ordersvc.NewService(
		suite.customers,
		suite.products,
		orders,
		ordersvc.WithOutbox(suite.outbox),
		ordersvc.WithLogger(logger),
	)

	suite.worker = outboxsvc.NewWorker(
		suite.outbox,
		suite.publisher,
		outboxsvc.WithLogger(logger),
		outboxsvc.WithRetryBaseDelay(0),
	)
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	ctx := context.Background()

	placed, err := suite.service.CreateOrder(ctx, "customer-123", []domain.RequestedLine{
		{ProductID: "laptop-pro", Qty: 1},
		{ProductID: "mouse-wireless", Qty: 2},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPlaced, placed.Status)
	require.Equal(suite.T(), int64(209898), placed.AmountMinor) // 199900 + 2*4999
	require.Len(suite.T(), placed.Lines, 2)

	// Остатки списаны ровно на запрошенное количество.
	laptopQty, ok := suite.products.Quantity("laptop-pro")
	require.True(suite.T(), ok)
	require.Equal(suite.T(), int32(4), laptopQty)
	mouseQty, _ := suite.products.Quantity("mouse-wireless")
	require.Equal(suite.T(), int32(8), mouseQty)

	// Заказ читается обратно с тем же снапшотом цен.
	got, err := suite.service.GetOrder(ctx, placed.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), placed.AmountMinor, got.AmountMinor)
	require.Equal(suite.T(), int64(199900), got.Lines[0].PriceMinor)

	// Outbox worker доставляет событие публикатору.
	suite.worker.ProcessOnce(ctx)
	published := suite.publisher.published()
	require.Len(suite.T(), published, 1)
	require.Equal(suite.T(), ordersvc.EventTypeOrderPlaced, published[0].EventType)
	require.Equal(suite.T(), placed.ID, published[0].AggregateID)

	var payload struct {
		OrderID     string `json:"order_id"`
		AmountMinor int64  `json:"amount_minor"`
	}
	require.NoError(suite.T(), json.Unmarshal(published[0].Payload, &payload))
	require.Equal(suite.T(), placed.ID, payload.OrderID)
	require.Equal(suite.T(), placed.AmountMinor, payload.AmountMinor)

	// Повторный цикл ничего не публикует: backlog пуст.
	suite.worker.ProcessOnce(ctx)
	require.Len(suite.T(), suite.publisher.published(), 1)
}

func (suite *OrderLifecycleTestSuite) TestRejectedOrderLeavesNoTraces() {
	ctx := context.Background()

	_, err := suite.service.CreateOrder(ctx, "customer-123", []domain.RequestedLine{
		{ProductID: "laptop-pro", Qty: 1},
		{ProductID: "mouse-wireless", Qty: 100},
	})
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	// Ни остатки, ни outbox не затронуты.
	laptopQty, _ := suite.products.Quantity("laptop-pro")
	require.Equal(suite.T(), int32(5), laptopQty)
	mouseQty, _ := suite.products.Quantity("mouse-wireless")
	require.Equal(suite.T(), int32(10), mouseQty)

	suite.worker.ProcessOnce(ctx)
	require.Empty(suite.T(), suite.publisher.published())

	orders, err := suite.service.ListOrdersByCustomer(ctx, "customer-123", 0)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
}

func (suite *OrderLifecycleTestSuite) TestConcurrentPlacementRespectsStock() {
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = suite.service.CreateOrder(ctx, "customer-123", []domain.RequestedLine{
				{ProductID: "laptop-pro", Qty: 1},
			})
		}(i)
	}
	wg.Wait()

	var okCount int
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)
		}
	}
	require.Equal(suite.T(), 5, okCount)

	laptopQty, _ := suite.products.Quantity("laptop-pro")
	require.Equal(suite.T(), int32(0), laptopQty)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
