package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка, если снапшот цены позиции отрицательный.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// Ошибка, если один товар встречается в нескольких позициях заказа.
	ErrDuplicateProduct = errors.New("order lines reference the same product more than once")

	// ErrInvalidRequest возвращается на синтаксически некорректный запрос
	// (пустой список позиций, неположительное количество, дубль товара).
	ErrInvalidRequest = errors.New("invalid order request")
	// ErrCustomerNotFound — запрошенный клиент не существует.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductsNotFound — один или несколько запрошенных товаров не найдены в каталоге.
	ErrProductsNotFound = errors.New("one or more products were not found")
	// ErrInsufficientStock — остатка товара не хватает на запрошенное количество.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists сигнализирует о конфликте идентификаторов при сохранении.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InvalidRequestError уточняет, чем именно запрос нарушил контракт.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidRequest, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// ProductsNotFoundError перечисляет запрошенные товары, отсутствующие в каталоге.
type ProductsNotFoundError struct {
	ProductIDs []string
}

func (e *ProductsNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrProductsNotFound, strings.Join(e.ProductIDs, ", "))
}

func (e *ProductsNotFoundError) Unwrap() error { return ErrProductsNotFound }

// InsufficientStockError называет товар и размер дефицита.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%v: product %s requested %d available %d",
		ErrInsufficientStock, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall возвращает, скольких единиц не хватило.
func (e *InsufficientStockError) Shortfall() int32 { return e.Requested - e.Available }

// PartialFailureError фиксирует самый неприятный путь отказа: остатки уже
// списаны, запись заказа не удалась, и компенсирующий возврат остатков тоже
// завершился ошибкой. Требует ручной сверки остатков оператором.
type PartialFailureError struct {
	ProductIDs      []string
	Cause           error
	CompensationErr error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("order persist failed after stock was reserved (products %s): %v; compensation failed: %v",
		strings.Join(e.ProductIDs, ", "), e.Cause, e.CompensationErr)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// IsStockShortage проверяет, является ли ошибка нехваткой остатков.
func IsStockShortage(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
