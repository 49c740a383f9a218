package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/storage/memory"
)

func TestOrderStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	order := domain.NewOrder("product-1", 2, 500)

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != order.ID || got.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := store.GetOrder(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	err = store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.CreateOrder(ctx, order)
	})
	if !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("duplicate create must conflict, got %v", err)
	}
}

func TestOrderStore_SaveOrderVersioning(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	order := domain.NewOrder("product-1", 1, 100)

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = store.WithinTx(ctx, func(tx domain.OrderTx) error {
		current, err := tx.GetOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := current.MarkReserved(); err != nil {
			return err
		}
		return tx.SaveOrder(ctx, current)
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.OrderStatusReserved {
		t.Fatalf("expected reserved status, got %s", got.Status)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1 after save, got %d", got.Version)
	}

	// Сохранение с устаревшей версией конфликтует.
	stale := order
	err = store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.SaveOrder(ctx, stale)
	})
	if !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected ErrOrderVersionConflict for stale save, got %v", err)
	}

	missing := domain.NewOrder("product-1", 1, 100)
	err = store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.SaveOrder(ctx, missing)
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for unknown order, got %v", err)
	}
}

func TestOrderStore_TxRollback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	order := domain.NewOrder("product-1", 1, 100)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.AppendTimeline(ctx, domain.TimelineEvent{OrderID: order.ID, Type: "OrderCreated", Occurred: time.Now().UTC()}); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, domain.OutboxMessage{
			ID:            "msg-1",
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     "OrderCreated",
			Payload:       []byte("{}"),
			OccurredAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	// Откат возвращает все три среза состояния.
	if _, err := store.GetOrder(ctx, order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("order must be rolled back, got %v", err)
	}
	stats, err := store.OutboxStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("outbox must be rolled back, got %d pending", stats.PendingCount)
	}
}

func TestOrderStore_Timeline(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	order := domain.NewOrder("product-1", 1, 100)

	if _, err := store.ListTimeline(ctx, order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("timeline of unknown order must fail, got %v", err)
	}

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.AppendTimeline(ctx, domain.TimelineEvent{OrderID: order.ID, Type: "OrderCreated", Occurred: time.Now().UTC()}); err != nil {
			return err
		}
		return tx.AppendTimeline(ctx, domain.TimelineEvent{OrderID: order.ID, Type: "StockReserved", Occurred: time.Now().UTC()})
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	timeline, err := store.ListTimeline(ctx, order.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(timeline) != 2 {
		t.Fatalf("expected 2 timeline events, got %d", len(timeline))
	}
	if timeline[0].Type != "OrderCreated" || timeline[1].Type != "StockReserved" {
		t.Fatalf("timeline order broken: %+v", timeline)
	}
}

func TestOrderStore_OutboxPullAndMark(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	base := time.Now().UTC()

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		for _, msg := range []domain.OutboxMessage{
			{ID: "msg-b", EventType: "OrderCreated", OccurredAt: base.Add(2 * time.Second)},
			{ID: "msg-a", EventType: "OrderCreated", OccurredAt: base.Add(time.Second)},
			{ID: "msg-c", EventType: "OrderCreated", OccurredAt: base.Add(time.Second)},
		} {
			msg.AggregateType = "order"
			msg.Payload = []byte("{}")
			if err := tx.AppendOutbox(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	err = store.WithinOutboxTx(ctx, func(tx domain.OutboxTx) error {
		pulled, err := tx.PullUnprocessed(ctx, 10)
		if err != nil {
			return err
		}
		if len(pulled) != 3 {
			t.Fatalf("expected 3 pending, got %d", len(pulled))
		}
		// Порядок стабильный: occurred_at, затем id.
		if pulled[0].ID != "msg-a" || pulled[1].ID != "msg-c" || pulled[2].ID != "msg-b" {
			t.Fatalf("unexpected pull order: %s %s %s", pulled[0].ID, pulled[1].ID, pulled[2].ID)
		}
		return tx.MarkProcessed(ctx, "msg-a", time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("outbox tx failed: %v", err)
	}

	stats, err := store.OutboxStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending after mark, got %d", stats.PendingCount)
	}

	err = store.WithinOutboxTx(ctx, func(tx domain.OutboxTx) error {
		return tx.MarkProcessed(ctx, "missing", time.Now().UTC())
	})
	if !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("marking unknown message must fail, got %v", err)
	}
}

func TestOrderStore_OutboxTxRollback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	boom := errors.New("publish failed")

	err := store.WithinTx(ctx, func(tx domain.OrderTx) error {
		return tx.AppendOutbox(ctx, domain.OutboxMessage{ID: "msg-1", EventType: "OrderCreated", OccurredAt: time.Now().UTC()})
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	err = store.WithinOutboxTx(ctx, func(tx domain.OutboxTx) error {
		if err := tx.MarkProcessed(ctx, "msg-1", time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	stats, err := store.OutboxStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Fatalf("mark must be rolled back, got %d pending", stats.PendingCount)
	}
}
