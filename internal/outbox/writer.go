// Package outbox реализует transactional outbox: атомарную запись события
// вместе с доменной мутацией и фоновый relay, публикующий записи в брокер.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

// Append сериализует событие и добавляет его в outbox через переданную
// транзакцию. Сетевых вызовов здесь нет — публикацией занимается Relay.
// Если объемлющая транзакция откатится, записи не будет и событие никогда
// не опубликуется; этим и обеспечивается согласованность доменного состояния
// с уведомлением потребителей.
func Append(ctx context.Context, tx domain.OutboxAppender, aggregateType, aggregateID, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
	if err := tx.AppendOutbox(ctx, msg); err != nil {
		return fmt.Errorf("append outbox message: %w", err)
	}
	return nil
}
