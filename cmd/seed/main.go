package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// seedCustomer и seedProduct задают формат JSON-файла сидирования.
type seedCustomer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type seedProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int32  `json:"quantity"`
}

type dataset struct {
	Customers []seedCustomer `json:"customers"`
	Products  []seedProduct  `json:"products"`
}

// defaultDataset — демонстрационный набор для локальной разработки.
func defaultDataset() dataset {
	return dataset{
		Customers: []seedCustomer{
			{ID: "11111111-1111-1111-1111-111111111111", Name: "Иван Петров", Email: "ivan@example.com"},
			{ID: "22222222-2222-2222-2222-222222222222", Name: "Анна Смирнова", Email: "anna@example.com"},
		},
		Products: []seedProduct{
			{ID: "a1111111-1111-1111-1111-111111111111", Name: "Механическая клавиатура", PriceMinor: 450000, Quantity: 25},
			{ID: "a2222222-2222-2222-2222-222222222222", Name: "Беспроводная мышь", PriceMinor: 120000, Quantity: 40},
			{ID: "a3333333-3333-3333-3333-333333333333", Name: "Монитор 27\"", PriceMinor: 1890000, Quantity: 10},
			{ID: "a4444444-4444-4444-4444-444444444444", Name: "USB-хаб", PriceMinor: 65000, Quantity: 0},
		},
	}
}

func loadDataset(path string) (dataset, error) {
	if path == "" {
		return defaultDataset(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return dataset{}, fmt.Errorf("read dataset file: %w", err)
	}

	var data dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return dataset{}, fmt.Errorf("parse dataset file: %w", err)
	}
	if len(data.Customers) == 0 && len(data.Products) == 0 {
		return dataset{}, fmt.Errorf("dataset file %s contains no customers and no products", path)
	}

	return data, nil
}

func main() {
	var (
		dsn  string
		file string
	)

	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: CHECKOUT_POSTGRES_DSN)")
	flag.StringVar(&file, "file", "", "path to JSON dataset (default: built-in demo data)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("CHECKOUT_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("CHECKOUT_POSTGRES_DSN (or -dsn) is required")
	}

	data, err := loadDataset(file)
	if err != nil {
		fail("load dataset: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("apply migrations: %v", err)
	}

	customers := postgres.NewCustomerRepository(store)
	for _, customer := range data.Customers {
		if err := customers.Upsert(domain.Customer{
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
		}); err != nil {
			fail("seed customer %s: %v", customer.ID, err)
		}
	}

	products := postgres.NewProductRepository(store)
	for _, product := range data.Products {
		if err := products.Upsert(domain.Product{
			ID:         product.ID,
			Name:       product.Name,
			PriceMinor: product.PriceMinor,
			Quantity:   product.Quantity,
		}); err != nil {
			fail("seed product %s: %v", product.ID, err)
		}
	}

	fmt.Printf("seed ok: customers=%d products=%d\n", len(data.Customers), len(data.Products))
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
