// Package events содержит wire-схемы интеграционных событий OFS.
// Каждое событие несёт уникальный идентификатор, момент возникновения и
// явную версию схемы; payload кодируется в JSON (UTF-8).
package events

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion — текущая версия схем событий. Поле version в payload
// позволяет эволюционировать схемы, не ломая потребителей.
const SchemaVersion = 1

// Имена типов событий. Это ключи реестра топиков и значения event_type
// в outbox; wire-имена очередей задаются отдельно (см. topics.go).
const (
	TypeOrderCreated     = "OrderCreated"
	TypeStockReserved    = "StockReserved"
	TypeStockFailed      = "StockFailed"
	TypePaymentSucceeded = "PaymentSucceeded"
	TypePaymentFailed    = "PaymentFailed"
)

// Meta — общие поля каждого интеграционного события.
type Meta struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
}

func newMeta() Meta {
	return Meta{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Version:    SchemaVersion,
	}
}

// OrderCreated — сервис заказов принял новый заказ.
type OrderCreated struct {
	Meta
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"quantity"`
	PriceMinor int64  `json:"price_minor"`
}

// NewOrderCreated создаёт событие с заполненными служебными полями.
func NewOrderCreated(orderID, productID string, qty int32, priceMinor int64) OrderCreated {
	return OrderCreated{
		Meta:       newMeta(),
		OrderID:    orderID,
		ProductID:  productID,
		Qty:        qty,
		PriceMinor: priceMinor,
	}
}

// StockReserved — склад удержал товар под заказ.
// AmountMinor — сумма к списанию (qty × price), чтобы платёжному сервису
// не требовалось знание о заказе.
type StockReserved struct {
	Meta
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	Qty         int32  `json:"quantity"`
	AmountMinor int64  `json:"amount_minor"`
}

// NewStockReserved создаёт событие успешного резервирования.
func NewStockReserved(orderID, productID string, qty int32, amountMinor int64) StockReserved {
	return StockReserved{
		Meta:        newMeta(),
		OrderID:     orderID,
		ProductID:   productID,
		Qty:         qty,
		AmountMinor: amountMinor,
	}
}

// StockFailed — резервирование не удалось; компенсирующий сигнал для саги.
type StockFailed struct {
	Meta
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Qty       int32  `json:"quantity"`
	Reason    string `json:"reason"`
}

// NewStockFailed создаёт событие отказа резервирования.
func NewStockFailed(orderID, productID string, qty int32, reason string) StockFailed {
	return StockFailed{
		Meta:      newMeta(),
		OrderID:   orderID,
		ProductID: productID,
		Qty:       qty,
		Reason:    reason,
	}
}

// PaymentSucceeded — списание авторизовано.
type PaymentSucceeded struct {
	Meta
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
}

// NewPaymentSucceeded создаёт событие успешной оплаты.
func NewPaymentSucceeded(orderID string, amountMinor int64) PaymentSucceeded {
	return PaymentSucceeded{
		Meta:        newMeta(),
		OrderID:     orderID,
		AmountMinor: amountMinor,
	}
}

// PaymentFailed — списание отклонено; компенсирующий сигнал для саги и склада.
type PaymentFailed struct {
	Meta
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
	Reason      string `json:"reason"`
}

// NewPaymentFailed создаёт событие отказа оплаты.
func NewPaymentFailed(orderID string, amountMinor int64, reason string) PaymentFailed {
	return PaymentFailed{
		Meta:        newMeta(),
		OrderID:     orderID,
		AmountMinor: amountMinor,
		Reason:      reason,
	}
}
