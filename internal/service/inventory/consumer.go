package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

// Handlers возвращает обработчики входящих событий склада по топикам.
func (s *Service) Handlers() map[string]kafka.MessageHandler {
	return map[string]kafka.MessageHandler{
		events.TopicOrderCreated: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.OrderCreated
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode OrderCreated: %w", err)
			}
			return s.HandleOrderCreated(ctx, evt)
		},
		events.TopicPaymentFailed: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.PaymentFailed
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode PaymentFailed: %w", err)
			}
			return s.HandlePaymentFailed(ctx, evt)
		},
	}
}
