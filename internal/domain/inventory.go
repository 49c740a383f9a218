package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem хранит доступный остаток товара на складе.
// Инвариант: AvailableQty никогда не уходит в минус.
type InventoryItem struct {
	ProductID    string
	AvailableQty int32
	UpdatedAt    time.Time
}

// CanReserve сообщает, хватает ли остатка для резервирования qty единиц.
func (i *InventoryItem) CanReserve(qty int32) bool {
	return qty > 0 && i.AvailableQty >= qty
}

// Reserve уменьшает остаток. Нехватка стока — обычный бизнес-результат,
// не исключение: возвращается ErrInsufficientStock, состояние не меняется.
func (i *InventoryItem) Reserve(qty int32) error {
	if !i.CanReserve(qty) {
		return ErrInsufficientStock
	}
	i.AvailableQty -= qty
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// Release возвращает qty единиц в остаток (компенсация отменённого заказа).
func (i *InventoryItem) Release(qty int32) {
	if qty <= 0 {
		return
	}
	i.AvailableQty += qty
	i.UpdatedAt = time.Now().UTC()
}

// ReservationStatus отражает состояние резерва под заказ.
type ReservationStatus string

const (
	// ReservationStatusActive — товар удержан под заказ.
	ReservationStatusActive ReservationStatus = "active"
	// ReservationStatusReleased — резерв снят компенсацией; повторный release — no-op.
	ReservationStatusReleased ReservationStatus = "released"
)

// Reservation описывает резерв товара под конкретный заказ.
// На один заказ создаётся не более одного резерва.
type Reservation struct {
	ID         string
	OrderID    string
	ProductID  string
	Qty        int32
	Status     ReservationStatus
	CreatedAt  time.Time
	ReleasedAt time.Time
}

// NewReservation создаёт активный резерв.
func NewReservation(orderID, productID string, qty int32) Reservation {
	return Reservation{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		ProductID: productID,
		Qty:       qty,
		Status:    ReservationStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate проверяет, корректно ли заполнены ключевые поля резерва.
func (r *Reservation) Validate() []error {
	var errs []error

	if r.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if r.ProductID == "" {
		errs = append(errs, ErrProductRequired)
	}
	if r.Qty <= 0 {
		errs = append(errs, ErrQtyInvalid)
	}

	return errs
}

// MarkReleased фиксирует снятие резерва. Возвращает false, если резерв уже снят.
func (r *Reservation) MarkReleased() bool {
	if r.Status == ReservationStatusReleased {
		return false
	}
	r.Status = ReservationStatusReleased
	r.ReleasedAt = time.Now().UTC()
	return true
}
