package postgres

import (
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestProductRepository_PostgresFindByIDs(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewProductRepository(store)

	found, err := repo.FindByIDs([]string{"p-1", "missing", "p-2"})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 products, got %d", len(found))
	}

	empty, err := repo.FindByIDs(nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no products, got %d", len(empty))
	}
}

func TestProductRepository_PostgresDecrementAndRestore(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewProductRepository(store)

	decs := []domain.StockDecrement{
		{ProductID: "p-1", Qty: 4},
		{ProductID: "p-2", Qty: 3},
	}
	if err := repo.DecrementQuantities(decs); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	found, err := repo.FindByIDs([]string{"p-1", "p-2"})
	if err != nil {
		t.Fatalf("find after decrement: %v", err)
	}
	quantities := map[string]int32{}
	for _, p := range found {
		quantities[p.ID] = p.Quantity
	}
	if quantities["p-1"] != 6 || quantities["p-2"] != 0 {
		t.Fatalf("unexpected quantities after decrement: %v", quantities)
	}

	if err := repo.RestoreQuantities(decs); err != nil {
		t.Fatalf("restore: %v", err)
	}
	found, err = repo.FindByIDs([]string{"p-1", "p-2"})
	if err != nil {
		t.Fatalf("find after restore: %v", err)
	}
	for _, p := range found {
		quantities[p.ID] = p.Quantity
	}
	if quantities["p-1"] != 10 || quantities["p-2"] != 3 {
		t.Fatalf("unexpected quantities after restore: %v", quantities)
	}
}

func TestProductRepository_PostgresDecrementShortageRollsBack(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewProductRepository(store)

	err := repo.DecrementQuantities([]domain.StockDecrement{
		{ProductID: "p-1", Qty: 1},
		{ProductID: "p-2", Qty: 100},
	})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "p-2" {
		t.Fatalf("unexpected product in error: %s", stockErr.ProductID)
	}

	found, err := repo.FindByIDs([]string{"p-1"})
	if err != nil {
		t.Fatalf("find after failed decrement: %v", err)
	}
	if len(found) != 1 || found[0].Quantity != 10 {
		t.Fatalf("partial decrement leaked: %+v", found)
	}
}

func TestProductRepository_PostgresConcurrentDecrement(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewProductRepository(store)

	const workers = 6
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = repo.DecrementQuantities([]domain.StockDecrement{{ProductID: "p-2", Qty: 1}})
		}(i)
	}
	wg.Wait()

	var okCount int
	for _, err := range results {
		if err == nil {
			okCount++
			continue
		}
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 3 {
		t.Fatalf("expected 3 successful decrements, got %d", okCount)
	}

	found, err := repo.FindByIDs([]string{"p-2"})
	if err != nil {
		t.Fatalf("find after concurrent decrement: %v", err)
	}
	if found[0].Quantity != 0 {
		t.Fatalf("expected zero stock, got %d", found[0].Quantity)
	}
}

func TestCustomerRepository_Postgres(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)
	repo := NewCustomerRepository(store)

	customer, err := repo.FindByID("customer-1")
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if customer.Email != "ivan@example.com" {
		t.Fatalf("unexpected customer: %+v", customer)
	}

	if _, err := repo.FindByID("missing"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}
