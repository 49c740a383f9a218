package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

// Handlers возвращает обработчики событий, по которым шлются уведомления.
func (s *Service) Handlers() map[string]kafka.MessageHandler {
	return map[string]kafka.MessageHandler{
		events.TopicPaymentSucceeded: func(_ context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.PaymentSucceeded
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode PaymentSucceeded: %w", err)
			}
			s.HandlePaymentSucceeded(evt)
			return nil
		},
		events.TopicPaymentFailed: func(_ context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.PaymentFailed
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode PaymentFailed: %w", err)
			}
			s.HandlePaymentFailed(evt)
			return nil
		},
		events.TopicStockFailed: func(_ context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.StockFailed
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode StockFailed: %w", err)
			}
			s.HandleStockFailed(evt)
			return nil
		},
	}
}
