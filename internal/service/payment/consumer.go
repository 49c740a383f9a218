package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/ofs/internal/events"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

// Handlers возвращает обработчики входящих событий платежей по топикам.
func (s *Service) Handlers() map[string]kafka.MessageHandler {
	return map[string]kafka.MessageHandler{
		events.TopicStockReserved: func(ctx context.Context, msg *sarama.ConsumerMessage) error {
			var evt events.StockReserved
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode StockReserved: %w", err)
			}
			return s.HandleStockReserved(ctx, evt)
		},
	}
}
