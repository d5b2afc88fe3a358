package domain

import "time"

// Customer — запись клиента из внешнего справочника.
// Ядро оформления заказа только читает её и никогда не изменяет.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
