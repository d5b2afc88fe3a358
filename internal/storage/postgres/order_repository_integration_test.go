package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestOrderRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	order1 := samplePlacedOrder("customer-1", now.Add(-2*time.Minute))
	order2 := samplePlacedOrder("customer-1", now.Add(-time.Minute))

	if err := repo.Create(order1); err != nil {
		t.Fatalf("create order1: %v", err)
	}
	if err := repo.Create(order2); err != nil {
		t.Fatalf("create order2: %v", err)
	}

	got, err := repo.Get(order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.CustomerID != order1.CustomerID || got.Status != domain.OrderStatusPlaced {
		t.Fatalf("unexpected order payload: %+v", got)
	}
	if got.AmountMinor != order1.AmountMinor {
		t.Fatalf("unexpected amount: got=%d want=%d", got.AmountMinor, order1.AmountMinor)
	}
	if len(got.Lines) != len(order1.Lines) {
		t.Fatalf("unexpected lines count: got=%d want=%d", len(got.Lines), len(order1.Lines))
	}
	if got.Lines[0].PriceMinor != order1.Lines[0].PriceMinor {
		t.Fatalf("price snapshot lost: %+v", got.Lines[0])
	}

	listed, err := repo.ListByCustomer("customer-1", 1)
	if err != nil {
		t.Fatalf("list by customer with limit: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != order2.ID {
		t.Fatalf("unexpected list result with limit: %+v", listed)
	}

	all, err := repo.ListByCustomer("customer-1", 0)
	if err != nil {
		t.Fatalf("list by customer without limit: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}

func TestOrderRepository_PostgresErrors(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	if _, err := repo.Get("missing-order"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	order := samplePlacedOrder("customer-1", time.Now().UTC().Round(time.Microsecond))
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists on duplicate create, got %v", err)
	}
}

func samplePlacedOrder(customerID string, createdAt time.Time) domain.Order {
	lines := []domain.OrderLine{
		{
			ID:         uuid.NewString(),
			ProductID:  "p-1",
			Qty:        2,
			PriceMinor: 450000,
			CreatedAt:  createdAt,
		},
	}

	return domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Status:      domain.OrderStatusPlaced,
		AmountMinor: 900000,
		Lines:       lines,
		CreatedAt:   createdAt,
	}
}
