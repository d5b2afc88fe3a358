package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// ProductRepository — in-memory каталог товаров с условным списанием остатков.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает пустой каталог; записи добавляются через Put.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[string]domain.Product),
	}
}

// Put добавляет или заменяет товар каталога.
func (r *ProductRepository) Put(product domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[product.ID] = product
}

// FindByIDs возвращает только существующие товары; неизвестные id молча пропускаются.
func (r *ProductRepository) FindByIDs(ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// DecrementQuantities атомарно списывает остатки по всем позициям.
// Проверка и применение выполняются под одной блокировкой: либо списываются
// все позиции, либо ни одна. При нехватке возвращается InsufficientStockError
// для первой проблемной позиции в порядке подачи.
func (r *ProductRepository) DecrementQuantities(decs []domain.StockDecrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dec := range decs {
		product, ok := r.items[dec.ProductID]
		if !ok {
			return &domain.ProductsNotFoundError{ProductIDs: []string{dec.ProductID}}
		}
		if product.Quantity < dec.Qty {
			return &domain.InsufficientStockError{
				ProductID: dec.ProductID,
				Requested: dec.Qty,
				Available: product.Quantity,
			}
		}
	}

	now := time.Now().UTC()
	for _, dec := range decs {
		product := r.items[dec.ProductID]
		product.Quantity -= dec.Qty
		product.UpdatedAt = now
		r.items[dec.ProductID] = product
	}
	return nil
}

// RestoreQuantities возвращает ранее списанные остатки (компенсация).
func (r *ProductRepository) RestoreQuantities(decs []domain.StockDecrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dec := range decs {
		product, ok := r.items[dec.ProductID]
		if !ok {
			return &domain.ProductsNotFoundError{ProductIDs: []string{dec.ProductID}}
		}
		product.Quantity += dec.Qty
		product.UpdatedAt = time.Now().UTC()
		r.items[dec.ProductID] = product
	}
	return nil
}

// Quantity возвращает текущий остаток товара (используется в тестах).
func (r *ProductRepository) Quantity(id string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return 0, false
	}
	return product.Quantity, true
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
