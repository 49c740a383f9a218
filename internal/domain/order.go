package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus описывает жизненный цикл заказа в OFS.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, резервирование и оплата ещё не выполнены.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusReserved — товар зарезервирован на складе.
	OrderStatusReserved OrderStatus = "reserved"
	// OrderStatusPaid — оплата подтверждена платёжным сервисом.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCompleted — заказ финализирован; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён после сбоя резервирования или оплаты; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order агрегирует состояние заказа. Статус меняется только сагой,
// каждый переход защищён проверкой текущего состояния.
type Order struct {
	ID         string
	ProductID  string
	Qty        int32
	PriceMinor int64
	Status     OrderStatus
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder создаёт заказ в статусе pending.
func NewOrder(productID string, qty int32, priceMinor int64) Order {
	now := time.Now().UTC()
	return Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Qty:        qty,
		PriceMinor: priceMinor,
		Status:     OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ProductID == "" {
		errs = append(errs, ErrProductRequired)
	}
	if o.Qty <= 0 {
		errs = append(errs, ErrQtyInvalid)
	}
	if o.PriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}

	return errs
}

// IsTerminal сообщает, достиг ли заказ терминального статуса.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// Порядок статусов на прямом пути саги. Cancelled вне пути: туда можно
// попасть с любого нетерминального статуса.
var sagaPath = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusReserved:  1,
	OrderStatusPaid:      2,
	OrderStatusCompleted: 3,
}

// Reached сообщает, достиг ли заказ статуса target или прошёл дальше по
// прямому пути. Для cancelled и из cancelled сравнение только на равенство.
func (o *Order) Reached(target OrderStatus) bool {
	if target == OrderStatusCancelled || o.Status == OrderStatusCancelled {
		return o.Status == target
	}
	return sagaPath[o.Status] >= sagaPath[target]
}

// MarkReserved переводит заказ pending → reserved.
func (o *Order) MarkReserved() error {
	return o.transition(OrderStatusReserved, OrderStatusPending)
}

// MarkPaid переводит заказ reserved → paid.
func (o *Order) MarkPaid() error {
	return o.transition(OrderStatusPaid, OrderStatusReserved)
}

// Complete переводит заказ paid → completed.
func (o *Order) Complete() error {
	return o.transition(OrderStatusCompleted, OrderStatusPaid)
}

// Cancel переводит любой нетерминальный статус в cancelled.
// Повторная отмена терминального заказа — конфликт; вызывающий решает, игнорировать ли его.
func (o *Order) Cancel() error {
	if o.IsTerminal() {
		return ErrOrderStateConflict
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (o *Order) transition(to OrderStatus, from ...OrderStatus) error {
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrOrderStateConflict
}
