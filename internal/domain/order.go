package domain

import "time"

// OrderStatus описывает состояние заказа. Ядро размещения создаёт заказы
// только в статусе placed; дальнейший жизненный цикл лежит вне этого сервиса.
type OrderStatus string

const (
	// OrderStatusPlaced — заказ проверен, остатки списаны, заказ сохранён.
	OrderStatusPlaced OrderStatus = "placed"
)

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — ссылка на товар каталога.
	ProductID string
	// Qty — заказанное количество единиц товара.
	Qty int32
	// PriceMinor — снапшот цены за единицу, скопированный из каталога в момент
	// создания заказа. После создания никогда не пересчитывается: сумма заказа
	// не меняется при последующих изменениях цен каталога.
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует заказ: ссылку на клиента и позиции в порядке подачи.
// После создания заказ append-only, поля не мутируются.
type Order struct {
	ID          string
	CustomerID  string
	Status      OrderStatus
	AmountMinor int64
	Lines       []OrderLine
	CreatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму заказа с суммой позиций (qty * price) и следим,
	// чтобы один товар не встречался в нескольких позициях.
	var calc int64
	seen := make(map[string]bool, len(o.Lines))
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if line.ProductID != "" {
			if seen[line.ProductID] {
				errs = append(errs, ErrDuplicateProduct)
			}
			seen[line.ProductID] = true
		}
		calc += int64(line.Qty) * line.PriceMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
