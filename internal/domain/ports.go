package domain

import (
	"context"
	"time"
)

// OutboxAppender добавляет событие в outbox в рамках открытой транзакции.
// Это и есть контракт атомарности: запись становится видимой тогда и только
// тогда, когда фиксируется доменная мутация той же транзакции.
type OutboxAppender interface {
	AppendOutbox(ctx context.Context, msg OutboxMessage) error
}

// OrderTx — операции сервиса заказов в рамках одной транзакции.
type OrderTx interface {
	OutboxAppender

	// CreateOrder сохраняет новый заказ. Возвращает ошибку, если ID уже занят.
	CreateOrder(ctx context.Context, order Order) error
	// GetOrder возвращает заказ или ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (Order, error)
	// SaveOrder применяет обновления с учётом optimistic locking.
	SaveOrder(ctx context.Context, order Order) error
	// AppendTimeline добавляет событие в историю заказа.
	AppendTimeline(ctx context.Context, event TimelineEvent) error
}

// OrderStore — хранилище сервиса заказов.
type OrderStore interface {
	// WithinTx выполняет fn в одной локальной транзакции;
	// ошибка из fn откатывает все изменения, включая outbox.
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
	// GetOrder — read-only запрос вне транзакции (для status endpoint).
	GetOrder(ctx context.Context, id string) (Order, error)
	// ListTimeline возвращает события жизненного цикла заказа.
	ListTimeline(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// InventoryTx — операции сервиса склада в рамках одной транзакции.
type InventoryTx interface {
	OutboxAppender

	// GetItem возвращает позицию склада или ErrItemNotFound.
	GetItem(ctx context.Context, productID string) (InventoryItem, error)
	// SaveItem перезаписывает остаток позиции.
	SaveItem(ctx context.Context, item InventoryItem) error
	// GetReservation возвращает резерв по заказу или ErrReservationNotFound.
	GetReservation(ctx context.Context, orderID string) (Reservation, error)
	// CreateReservation сохраняет резерв; ErrReservationExists при повторе.
	CreateReservation(ctx context.Context, res Reservation) error
	// SaveReservation перезаписывает резерв (снятие при компенсации).
	SaveReservation(ctx context.Context, res Reservation) error
}

// InventoryStore — хранилище сервиса склада.
type InventoryStore interface {
	WithinTx(ctx context.Context, fn func(tx InventoryTx) error) error
}

// PaymentTx — операции платёжного сервиса в рамках одной транзакции.
type PaymentTx interface {
	OutboxAppender

	// GetPayment возвращает платёж по заказу или ErrPaymentNotFound.
	GetPayment(ctx context.Context, orderID string) (Payment, error)
	// CreatePayment сохраняет платёж; ErrPaymentExists при повторе.
	CreatePayment(ctx context.Context, payment Payment) error
}

// PaymentStore — хранилище платёжного сервиса.
type PaymentStore interface {
	WithinTx(ctx context.Context, fn func(tx PaymentTx) error) error
}

// OutboxTx — операции relay над outbox в рамках одной транзакции.
type OutboxTx interface {
	// PullUnprocessed возвращает до limit неопубликованных записей,
	// отсортированных по времени возникновения.
	PullUnprocessed(ctx context.Context, limit int) ([]OutboxMessage, error)
	// MarkProcessed проставляет processed_at после подтверждённой публикации.
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// OutboxStore — взгляд relay на локальное хранилище сервиса.
// Конкретные стораджи реализуют его вместе со своим доменным интерфейсом.
type OutboxStore interface {
	WithinOutboxTx(ctx context.Context, fn func(tx OutboxTx) error) error
	// OutboxStats возвращает размер backlog для метрик.
	OutboxStats(ctx context.Context) (OutboxStats, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие в брокер; должен быть идемпотентным.
	Publish(msg OutboxMessage) error
}

// IdempotencyRepository хранит состояние обработки запросов по Idempotency-Key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}
