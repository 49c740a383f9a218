package events

// Реестр топиков: wire-имена очередей задаются явно и не совпадают с
// внутренними именами типов, чтобы контракт брокера можно было менять
// независимо от кода.
const (
	TopicOrderCreated     = "ofs.orders.created"
	TopicStockReserved    = "ofs.inventory.reserved"
	TopicStockFailed      = "ofs.inventory.failed"
	TopicPaymentSucceeded = "ofs.payments.succeeded"
	TopicPaymentFailed    = "ofs.payments.failed"
	// TopicDeadLetter — общий dead-letter топик для сообщений,
	// исчерпавших попытки обработки.
	TopicDeadLetter = "ofs.dlq"
)

var topicByType = map[string]string{
	TypeOrderCreated:     TopicOrderCreated,
	TypeStockReserved:    TopicStockReserved,
	TypeStockFailed:      TopicStockFailed,
	TypePaymentSucceeded: TopicPaymentSucceeded,
	TypePaymentFailed:    TopicPaymentFailed,
}

// TopicFor возвращает wire-топик для типа события.
func TopicFor(eventType string) (string, bool) {
	topic, ok := topicByType[eventType]
	return topic, ok
}

// AllTopics возвращает список всех бизнес-топиков (без DLQ).
func AllTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicStockReserved,
		TopicStockFailed,
		TopicPaymentSucceeded,
		TopicPaymentFailed,
	}
}
