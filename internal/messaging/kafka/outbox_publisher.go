package kafka

import (
	"fmt"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
)

// OutboxTopicPublisher публикует outbox-сообщения в Kafka, разрешая топик
// через реестр событий. Тело сообщения — payload события как есть:
// потребители десериализуют канонические схемы из internal/events.
type OutboxTopicPublisher struct {
	producer *Producer
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer) domain.OutboxPublisher {
	return &OutboxTopicPublisher{producer: producer}
}

func (p *OutboxTopicPublisher) Publish(msg domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	topic, ok := events.TopicFor(msg.EventType)
	if !ok {
		return fmt.Errorf("no topic registered for event type %q", msg.EventType)
	}

	key := msg.AggregateID
	if key == "" {
		key = msg.ID
	}

	return p.producer.PublishRaw(topic, key, msg.Payload)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
