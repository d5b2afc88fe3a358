package domain

// CustomerRepository описывает справочник клиентов, доступный ядру только на чтение.
type CustomerRepository interface {
	// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
	FindByID(id string) (Customer, error)
}

// ProductRepository описывает каталог товаров и условное списание остатков.
type ProductRepository interface {
	// FindByIDs возвращает только существующие товары; неизвестные идентификаторы
	// молча пропускаются — пробелы обнаруживает и сообщает вызывающая сторона.
	FindByIDs(ids []string) ([]Product, error)
	// DecrementQuantities атомарно списывает остатки по всем позициям сразу:
	// списание применяется только если остатка хватает по каждой позиции,
	// иначе ни одно списание не выполняется и возвращается InsufficientStockError.
	DecrementQuantities(decs []StockDecrement) error
	// RestoreQuantities возвращает ранее списанные остатки (компенсация).
	RestoreQuantities(decs []StockDecrement) error
}

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists,
	// если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента, новые первыми,
	// с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}
