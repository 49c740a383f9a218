package domain

import (
	"errors"
	"testing"
)

func TestInventoryItemReserve(t *testing.T) {
	item := InventoryItem{ProductID: "product-1", AvailableQty: 10}

	if !item.CanReserve(10) {
		t.Fatal("expected full stock to be reservable")
	}
	if item.CanReserve(11) {
		t.Fatal("reserve above stock must not be allowed")
	}
	if item.CanReserve(0) {
		t.Fatal("zero qty must not be reservable")
	}

	if err := item.Reserve(4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if item.AvailableQty != 6 {
		t.Fatalf("expected 6 remaining, got %d", item.AvailableQty)
	}

	if err := item.Reserve(7); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if item.AvailableQty != 6 {
		t.Fatalf("failed reserve must not change stock, got %d", item.AvailableQty)
	}
}

func TestInventoryItemRelease(t *testing.T) {
	item := InventoryItem{ProductID: "product-1", AvailableQty: 3}

	item.Release(2)
	if item.AvailableQty != 5 {
		t.Fatalf("expected 5 after release, got %d", item.AvailableQty)
	}

	item.Release(0)
	item.Release(-1)
	if item.AvailableQty != 5 {
		t.Fatalf("non-positive release must be a no-op, got %d", item.AvailableQty)
	}
}

func TestNewReservation(t *testing.T) {
	res := NewReservation("order-1", "product-1", 2)

	if res.ID == "" {
		t.Fatal("expected generated reservation id")
	}
	if res.Status != ReservationStatusActive {
		t.Fatalf("expected active status, got %s", res.Status)
	}
	if errs := res.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestReservationValidate_Errors(t *testing.T) {
	res := Reservation{}
	errs := res.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
}

func TestReservationMarkReleased(t *testing.T) {
	res := NewReservation("order-1", "product-1", 2)

	if !res.MarkReleased() {
		t.Fatal("first release must report a state change")
	}
	if res.Status != ReservationStatusReleased {
		t.Fatalf("expected released status, got %s", res.Status)
	}
	if res.ReleasedAt.IsZero() {
		t.Fatal("expected released_at to be set")
	}

	// Повторный release идемпотентен.
	if res.MarkReleased() {
		t.Fatal("second release must be a no-op")
	}
}
