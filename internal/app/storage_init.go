package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/storage/memory"
	"github.com/vladislavdragonenkov/ofs/internal/storage/postgres"
)

// storageBackend объединяет доменный стор сервиса с его outbox-взглядом и
// опциональным postgres-подключением для health-проверок и Close.
type storageBackend struct {
	outbox domain.OutboxStore
	pg     *postgres.Store
}

func (b storageBackend) close(logger *log.Entry) {
	if b.pg == nil {
		return
	}
	if err := b.pg.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}

func (b storageBackend) healthCheck() func() error {
	if b.pg == nil {
		return func() error { return nil }
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return b.pg.Ping(ctx)
	}
}

func openPostgres(ctx context.Context, dsn string, logger *log.Entry) (*postgres.Store, error) {
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.MigrateUp(ctx, 0); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")
	return store, nil
}

func initOrderStorage(ctx context.Context, dsn string, logger *log.Entry) (domain.OrderStore, domain.IdempotencyRepository, storageBackend, error) {
	if dsn == "" {
		logger.Info("using in-memory order storage")
		store := memory.NewOrderStore()
		return store, memory.NewIdempotencyRepository(), storageBackend{outbox: store}, nil
	}

	pg, err := openPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, nil, storageBackend{}, err
	}
	store := postgres.NewOrderStore(pg)
	return store, postgres.NewIdempotencyRepository(pg), storageBackend{outbox: store, pg: pg}, nil
}

func initInventoryStorage(ctx context.Context, dsn string, logger *log.Entry) (domain.InventoryStore, storageBackend, error) {
	if dsn == "" {
		logger.Info("using in-memory inventory storage")
		store := memory.NewInventoryStore()
		seedInventory(store)
		return store, storageBackend{outbox: store}, nil
	}

	pg, err := openPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, storageBackend{}, err
	}
	store := postgres.NewInventoryStore(pg)
	return store, storageBackend{outbox: store, pg: pg}, nil
}

func initPaymentStorage(ctx context.Context, dsn string, logger *log.Entry) (domain.PaymentStore, storageBackend, error) {
	if dsn == "" {
		logger.Info("using in-memory payment storage")
		store := memory.NewPaymentStore()
		return store, storageBackend{outbox: store}, nil
	}

	pg, err := openPostgres(ctx, dsn, logger)
	if err != nil {
		return nil, storageBackend{}, err
	}
	store := postgres.NewPaymentStore(pg)
	return store, storageBackend{outbox: store, pg: pg}, nil
}

// seedInventory наполняет in-memory склад стартовым каталогом, как это
// делает миграция для PostgreSQL.
func seedInventory(store *memory.InventoryStore) {
	now := time.Now().UTC()
	for _, item := range []domain.InventoryItem{
		{ProductID: "product-1", AvailableQty: 100, UpdatedAt: now},
		{ProductID: "product-2", AvailableQty: 50, UpdatedAt: now},
		{ProductID: "product-3", AvailableQty: 10, UpdatedAt: now},
	} {
		store.SeedItem(item)
	}
}
