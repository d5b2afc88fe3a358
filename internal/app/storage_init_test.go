package app

import (
	"context"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitStorage_Memory(t *testing.T) {
	logger := log.WithField("test", "storage")

	bundle, err := initStorage(context.Background(), DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("init memory storage: %v", err)
	}
	t.Cleanup(func() { _ = bundle.Close() })

	if bundle.Customers == nil || bundle.Products == nil || bundle.Orders == nil || bundle.Outbox == nil {
		t.Fatal("expected all repositories to be initialized")
	}
	if bundle.Store != nil {
		t.Fatal("memory driver must not open postgres store")
	}
}

func TestInitStorage_PostgresWithoutDSN(t *testing.T) {
	logger := log.WithField("test", "storage")

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres

	_, err := initStorage(context.Background(), cfg, logger)
	if err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
	if !strings.Contains(err.Error(), "CHECKOUT_POSTGRES_DSN") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInitStorage_UnknownDriver(t *testing.T) {
	logger := log.WithField("test", "storage")

	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	_, err := initStorage(context.Background(), cfg, logger)
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestStorageBundle_CloseNil(t *testing.T) {
	var bundle *storageBundle
	if err := bundle.Close(); err != nil {
		t.Fatalf("close nil bundle: %v", err)
	}
}
