package app

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ofs/internal/health"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ofs/internal/outbox"
	"github.com/vladislavdragonenkov/ofs/internal/service/inventory"
	"github.com/vladislavdragonenkov/ofs/internal/version"
)

// DefaultInventoryConfig возвращает базовые адреса inventory-service.
func DefaultInventoryConfig() Config {
	return Config{
		MetricsAddr:   ":9091",
		ConsumerGroup: "ofs-inventory-service",
	}
}

// RunInventory запускает inventory-service: consumer заказов и компенсаций
// плюс outbox relay.
func RunInventory(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "inventory-service")

	store, backend, err := initInventoryStorage(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer backend.close(logger)

	producer, err := initKafkaProducer(ctx, cfg.BrokerList(), 0, logger)
	if err != nil {
		return err
	}
	defer closeKafka(producer, logger)

	var wg sync.WaitGroup

	if producer != nil {
		relay := outbox.NewRelay(
			backend.outbox,
			kafka.NewOutboxPublisher(producer),
			outbox.WithLogger(logger.WithField("worker", "outbox-relay")),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	}

	svc := inventory.NewService(store, logger.WithField("layer", "inventory"))
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
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", backend.healthCheck()))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем inventory-service")
	shutdownHTTP(metricsSrv, logger)
	wg.Wait()
	return ctx.Err()
}
