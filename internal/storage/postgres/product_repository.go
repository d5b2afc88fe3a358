package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// ProductRepository — PostgreSQL-реализация каталога товаров.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{db: store.DB()}
}

// FindByIDs возвращает существующие товары одним запросом; неизвестные id
// молча пропускаются, проверка полноты остаётся за вызывающим.
func (r *ProductRepository) FindByIDs(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id IN (%s)
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.PriceMinor,
			&product.Quantity, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return result, nil
}

// DecrementQuantities атомарно списывает остатки по всем позициям в одной
// транзакции. Строки блокируются через SELECT ... FOR UPDATE в порядке
// возрастания id, чтобы конкурентные заказы не взаимоблокировались. При
// нехватке хотя бы одной позиции транзакция откатывается целиком.
func (r *ProductRepository) DecrementQuantities(decs []domain.StockDecrement) error {
	if len(decs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ordered := make([]domain.StockDecrement, len(decs))
	copy(ordered, decs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, dec := range ordered {
		var available int32
		err = tx.QueryRowContext(ctx, `
			SELECT quantity
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, dec.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = &domain.ProductsNotFoundError{ProductIDs: []string{dec.ProductID}}
				return err
			}
			return fmt.Errorf("lock product %s: %w", dec.ProductID, err)
		}

		if available < dec.Qty {
			err = &domain.InsufficientStockError{
				ProductID: dec.ProductID,
				Requested: dec.Qty,
				Available: available,
			}
			return err
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - $2,
			    updated_at = $3
			WHERE id = $1
		`, dec.ProductID, dec.Qty, time.Now().UTC()); err != nil {
			return fmt.Errorf("decrement product %s: %w", dec.ProductID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit stock decrement: %w", err)
	}

	return nil
}

// RestoreQuantities возвращает списанные остатки одной транзакцией (компенсация).
func (r *ProductRepository) RestoreQuantities(decs []domain.StockDecrement) error {
	if len(decs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, dec := range decs {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity + $2,
			    updated_at = $3
			WHERE id = $1
		`, dec.ProductID, dec.Qty, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("restore product %s: %w", dec.ProductID, err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected for restore %s: %w", dec.ProductID, err)
		}
		if affected == 0 {
			err = &domain.ProductsNotFoundError{ProductIDs: []string{dec.ProductID}}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit stock restore: %w", err)
	}

	return nil
}

// Upsert добавляет или обновляет товар; используется сидированием и тестами.
func (r *ProductRepository) Upsert(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_minor, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    price_minor = EXCLUDED.price_minor,
		    quantity = EXCLUDED.quantity,
		    updated_at = EXCLUDED.updated_at
	`, product.ID, product.Name, product.PriceMinor, product.Quantity, createdAt, now)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
