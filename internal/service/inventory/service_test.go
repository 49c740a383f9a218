package inventory_test

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/service/inventory"
	"github.com/vladislavdragonenkov/ofs/internal/storage/memory"
)

func pendingOutbox(t *testing.T, store domain.OutboxStore) []domain.OutboxMessage {
	t.Helper()
	var msgs []domain.OutboxMessage
	err := store.WithinOutboxTx(context.Background(), func(tx domain.OutboxTx) error {
		var err error
		msgs, err = tx.PullUnprocessed(context.Background(), 100)
		return err
	})
	if err != nil {
		t.Fatalf("pull outbox failed: %v", err)
	}
	return msgs
}

func newStore(qty int32) *memory.InventoryStore {
	store := memory.NewInventoryStore()
	store.SeedItem(domain.InventoryItem{ProductID: "product-1", AvailableQty: qty})
	return store
}

func TestHandleOrderCreated_Reserves(t *testing.T) {
	ctx := context.Background()
	store := newStore(10)
	svc := inventory.NewService(store, nil)
	evt := events.NewOrderCreated("order-1", "product-1", 3, 500)

	if err := svc.HandleOrderCreated(ctx, evt); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	item, _ := store.Item("product-1")
	if item.AvailableQty != 7 {
		t.Fatalf("expected 7 left, got %d", item.AvailableQty)
	}

	msgs := pendingOutbox(t, store)
	if len(msgs) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(msgs))
	}
	if msgs[0].EventType != events.TypeStockReserved {
		t.Fatalf("expected StockReserved, got %s", msgs[0].EventType)
	}
}

func TestHandleOrderCreated_Redelivery(t *testing.T) {
	ctx := context.Background()
	store := newStore(10)
	svc := inventory.NewService(store, nil)
	evt := events.NewOrderCreated("order-1", "product-1", 3, 500)

	if err := svc.HandleOrderCreated(ctx, evt); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := svc.HandleOrderCreated(ctx, evt); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	// Повторная доставка не трогает ни склад, ни outbox.
	item, _ := store.Item("product-1")
	if item.AvailableQty != 7 {
		t.Fatalf("redelivery must not double-reserve, got %d", item.AvailableQty)
	}
	if msgs := pendingOutbox(t, store); len(msgs) != 1 {
		t.Fatalf("redelivery must not duplicate events, got %d", len(msgs))
	}
}

func TestHandleOrderCreated_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	store := newStore(2)
	svc := inventory.NewService(store, nil)
	evt := events.NewOrderCreated("order-1", "product-1", 5, 500)

	if err := svc.HandleOrderCreated(ctx, evt); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	item, _ := store.Item("product-1")
	if item.AvailableQty != 2 {
		t.Fatalf("rejected order must not change stock, got %d", item.AvailableQty)
	}

	msgs := pendingOutbox(t, store)
	if len(msgs) != 1 || msgs[0].EventType != events.TypeStockFailed {
		t.Fatalf("expected StockFailed, got %+v", msgs)
	}
}

func TestHandleOrderCreated_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInventoryStore()
	svc := inventory.NewService(store, nil)
	evt := events.NewOrderCreated("order-1", "product-x", 1, 500)

	if err := svc.HandleOrderCreated(ctx, evt); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	msgs := pendingOutbox(t, store)
	if len(msgs) != 1 || msgs[0].EventType != events.TypeStockFailed {
		t.Fatalf("expected StockFailed for unknown product, got %+v", msgs)
	}
}

func TestHandlePaymentFailed_Compensates(t *testing.T) {
	ctx := context.Background()
	store := newStore(10)
	svc := inventory.NewService(store, nil)

	if err := svc.HandleOrderCreated(ctx, events.NewOrderCreated("order-1", "product-1", 4, 500)); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	item, _ := store.Item("product-1")
	if item.AvailableQty != 6 {
		t.Fatalf("expected 6 after reserve, got %d", item.AvailableQty)
	}

	failed := events.NewPaymentFailed("order-1", 2000, "Insufficient funds")
	if err := svc.HandlePaymentFailed(ctx, failed); err != nil {
		t.Fatalf("compensation failed: %v", err)
	}

	item, _ = store.Item("product-1")
	if item.AvailableQty != 10 {
		t.Fatalf("expected stock restored to 10, got %d", item.AvailableQty)
	}

	// Повторная компенсация идемпотентна.
	if err := svc.HandlePaymentFailed(ctx, failed); err != nil {
		t.Fatalf("repeated compensation failed: %v", err)
	}
	item, _ = store.Item("product-1")
	if item.AvailableQty != 10 {
		t.Fatalf("repeated compensation must be a no-op, got %d", item.AvailableQty)
	}
}

func TestHandlePaymentFailed_NoReservation(t *testing.T) {
	ctx := context.Background()
	store := newStore(10)
	svc := inventory.NewService(store, nil)

	// Заказ не дошёл до резервирования: компенсировать нечего.
	if err := svc.HandlePaymentFailed(ctx, events.NewPaymentFailed("order-x", 100, "declined")); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	item, _ := store.Item("product-1")
	if item.AvailableQty != 10 {
		t.Fatalf("stock must be untouched, got %d", item.AvailableQty)
	}
}
