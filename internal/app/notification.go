package app

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ofs/internal/health"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ofs/internal/service/notification"
	"github.com/vladislavdragonenkov/ofs/internal/version"
)

// DefaultNotificationConfig возвращает базовые адреса notification-service.
func DefaultNotificationConfig() Config {
	return Config{
		MetricsAddr:   ":9093",
		ConsumerGroup: "ofs-notification-service",
	}
}

// RunNotification запускает notification-service: чистый consumer без
// собственного состояния и outbox.
func RunNotification(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "notification-service")

	producer, err := initKafkaProducer(ctx, cfg.BrokerList(), 0, logger)
	if err != nil {
		return err
	}
	defer closeKafka(producer, logger)

	var wg sync.WaitGroup

	svc := notification.NewService(logger.WithField("layer", "notification"))
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		consumer := kafka.NewConsumer(
			brokers,
			cfg.ConsumerGroup,
			svc.Handlers(),
			kafka.WithConsumerLogger(logger.WithField("worker", "consumer")),
			kafka.WithDLQProducer(producer),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Run(ctx)
		}()
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем notification-service")
	shutdownHTTP(metricsSrv, logger)
	wg.Wait()
	return ctx.Err()
}
