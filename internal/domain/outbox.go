package domain

import "time"

// OutboxMessage хранит событие, записанное в одной транзакции с доменной
// мутацией и ожидающее публикации в брокер. Строки никогда не удаляются:
// таблица служит журналом доставки (retention — вне скоупа).
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string // Ключ реестра топиков; используется как routing key.
	Payload       []byte
	OccurredAt    time.Time
	ProcessedAt   time.Time // Нулевое значение — событие ещё не опубликовано.
}

// Processed сообщает, была ли запись подтверждённо опубликована.
func (m *OutboxMessage) Processed() bool {
	return !m.ProcessedAt.IsZero()
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
