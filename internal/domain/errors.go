package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора товара.
	ErrProductRequired = errors.New("product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQtyInvalid = errors.New("qty must be greater than zero")
	// Ошибка, если цена отрицательная.
	ErrPriceNegative = errors.New("price_minor must be non-negative")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrOrderStateConflict — переход саги неприменим к текущему статусу заказа.
	ErrOrderStateConflict = errors.New("order state conflict")
	// ErrItemNotFound — позиция склада не заведена.
	ErrItemNotFound = errors.New("inventory item not found")
	// ErrInsufficientStock — бизнес-отказ склада: доступного количества не хватает.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReservationNotFound — резерв по заказу отсутствует.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationExists — резерв по заказу уже создан (повторная доставка события).
	ErrReservationExists = errors.New("reservation already exists")
	// ErrPaymentNotFound — платёж по заказу отсутствует.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentExists — платёж по заказу уже создан; запись и есть идемпотентный guard.
	ErrPaymentExists = errors.New("payment already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrIdempotencyKeyRequired — пустой Idempotency-Key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован с тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — тот же ключ использован с другим запросом.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrStoreUnavailable — хранилище недоступно или схема ещё не применена.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsStateConflict проверяет, является ли ошибка конфликтом перехода саги.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrOrderStateConflict)
}
