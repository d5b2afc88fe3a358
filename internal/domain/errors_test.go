package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestInvalidRequestError_Unwrap(t *testing.T) {
	err := error(&domain.InvalidRequestError{Reason: "lines are empty"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected errors.Is to match ErrInvalidRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "lines are empty") {
		t.Fatalf("expected reason in message, got %q", err.Error())
	}
}

func TestProductsNotFoundError_NamesProducts(t *testing.T) {
	err := error(&domain.ProductsNotFoundError{ProductIDs: []string{"p-404", "p-405"}})
	if !errors.Is(err, domain.ErrProductsNotFound) {
		t.Fatalf("expected errors.Is to match ErrProductsNotFound, got %v", err)
	}

	var pnf *domain.ProductsNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatal("expected errors.As to extract ProductsNotFoundError")
	}
	if len(pnf.ProductIDs) != 2 || pnf.ProductIDs[0] != "p-404" {
		t.Fatalf("unexpected product ids: %v", pnf.ProductIDs)
	}
}

func TestInsufficientStockError_Shortfall(t *testing.T) {
	err := error(&domain.InsufficientStockError{ProductID: "p-1", Requested: 5, Available: 2})
	if !domain.IsStockShortage(err) {
		t.Fatalf("expected stock shortage, got %v", err)
	}

	var short *domain.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatal("expected errors.As to extract InsufficientStockError")
	}
	if short.Shortfall() != 3 {
		t.Fatalf("expected shortfall 3, got %d", short.Shortfall())
	}
}

func TestPartialFailureError_UnwrapsCause(t *testing.T) {
	cause := errors.New("insert order: connection reset")
	err := error(&domain.PartialFailureError{
		ProductIDs:      []string{"p-1"},
		Cause:           cause,
		CompensationErr: errors.New("restore failed"),
	})

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match the persist cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "compensation failed") {
		t.Fatalf("expected compensation note in message, got %q", err.Error())
	}
}
