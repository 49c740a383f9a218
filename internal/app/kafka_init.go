package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

const defaultKafkaConnectDelay = 5 * time.Second

// Подменяется в тестах.
var newProducer = kafka.NewProducer

// initKafkaProducer инициализирует Kafka producer, если brokers не пустой.
// Возвращает nil, nil если brokers пустой. Недоступность брокера считается
// временной ошибкой: подключение повторяется с паузой retryDelay до отмены
// ctx, сервис при этом не завершается.
func initKafkaProducer(ctx context.Context, brokers []string, retryDelay time.Duration, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		logger.Warn("kafka brokers are not configured, events will stay in the outbox")
		return nil, nil
	}
	if retryDelay <= 0 {
		retryDelay = defaultKafkaConnectDelay
	}

	for {
		producer, err := newProducer(brokers)
		if err == nil {
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
			return producer, nil
		}

		logger.WithError(err).WithField("retry_in", retryDelay).Warn("kafka brokers unreachable, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// closeKafka закрывает Kafka producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
