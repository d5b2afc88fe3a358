package domain

import "time"

// Product описывает товар каталога: текущую цену и доступный остаток.
// Единственная мутация со стороны ядра — условное списание остатка.
type Product struct {
	ID   string
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	// Quantity — доступный остаток, всегда неотрицательный.
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestedLine — одна запрошенная позиция заказа: товар и количество.
type RequestedLine struct {
	ProductID string
	Qty       int32
}

// StockDecrement задаёт списание Qty единиц остатка товара ProductID.
type StockDecrement struct {
	ProductID string
	Qty       int32
}
