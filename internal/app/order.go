package app

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ofs/internal/health"
	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ofs/internal/outbox"
	"github.com/vladislavdragonenkov/ofs/internal/service/httpapi"
	"github.com/vladislavdragonenkov/ofs/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ofs/internal/service/intake"
	"github.com/vladislavdragonenkov/ofs/internal/service/saga"
	"github.com/vladislavdragonenkov/ofs/internal/version"
)

// DefaultOrderConfig возвращает базовые адреса order-service.
func DefaultOrderConfig() Config {
	return Config{
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
		ConsumerGroup: "ofs-order-service",
	}
}

// RunOrder запускает order-service: HTTP API приёма заказов, outbox relay,
// сагу жизненного цикла заказа и воркер очистки idempotency ключей.
func RunOrder(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "order-service")

	store, idemRepo, backend, err := initOrderStorage(ctx, cfg.PostgresDSN, logger)
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

	orderSaga := saga.NewSaga(store, logger.WithField("layer", "saga"))
	if brokers := cfg.BrokerList(); len(brokers) > 0 {
		consumer := kafka.NewConsumer(
			brokers,
			cfg.ConsumerGroup,
			orderSaga.Handlers(),
			kafka.WithConsumerLogger(logger.WithField("worker", "consumer")),
			kafka.WithDLQProducer(producer),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Run(ctx)
		}()
	}

	cleanup := idempotency.NewCleanupWorker(idemRepo,
		idempotency.WithLogger(logger.WithField("worker", "idempotency-cleanup")))
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()

	intakeSvc := intake.NewService(store, logger.WithField("layer", "intake"))
	handler := httpapi.NewHandler(intakeSvc, idemRepo, logger.WithField("layer", "http"))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", backend.healthCheck()))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	apiSrv, apiErrCh := startHTTPServer(cfg.HTTPAddr, handler.Router(), logger)

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем order-service")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		wg.Wait()
		return ctx.Err()
	case err := <-apiErrCh:
		shutdownHTTP(metricsSrv, logger)
		wg.Wait()
		return err
	}
}
