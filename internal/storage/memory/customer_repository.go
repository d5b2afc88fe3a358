package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CustomerRepository — in-memory справочник клиентов для локальной разработки и тестов.
type CustomerRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
}

// NewCustomerRepository возвращает пустой справочник; записи добавляются через Put.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		items: make(map[string]domain.Customer),
	}
}

// Put добавляет или заменяет запись клиента.
func (r *CustomerRepository) Put(customer domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[customer.ID] = customer
}

// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
func (r *CustomerRepository) FindByID(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

var _ domain.CustomerRepository = (*CustomerRepository)(nil)
