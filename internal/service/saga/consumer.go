package saga

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

// Handlers возвращает обработчики входящих событий саги по топикам.
func (s *Saga) Handlers() map[string]kafka.MessageHandler {
	return map[string]kafka.MessageHandler{
		events.TopicStockReserved: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.StockReserved
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode StockReserved: %w", err)
			}
			return s.HandleStockReserved(ctx, evt.OrderID)
		},
		events.TopicStockFailed: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.StockFailed
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode StockFailed: %w", err)
			}
			return s.HandleStockFailed(ctx, evt.OrderID, evt.Reason)
		},
		events.TopicPaymentSucceeded: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.PaymentSucceeded
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode PaymentSucceeded: %w", err)
			}
			return s.HandlePaymentSucceeded(ctx, evt.OrderID)
		},
		events.TopicPaymentFailed: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.PaymentFailed
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode PaymentFailed: %w", err)
			}
			return s.HandlePaymentFailed(ctx, evt.OrderID, evt.Reason)
		},
	}
}
