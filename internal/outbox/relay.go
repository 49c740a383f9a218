package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 10
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

var (
	relayPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofs_outbox_publish_attempts_total",
		Help: "Total number of outbox publish attempts grouped by result.",
	}, []string{"result"})
	relayPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ofs_outbox_pending_records",
		Help: "Current number of unprocessed records in transactional outbox.",
	})
	relayOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ofs_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest unprocessed outbox record.",
	})
)

// RelayOptions задаёт параметры relay.
type RelayOptions struct {
	Logger         *log.Entry
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// RelayOption настраивает Relay.
type RelayOption func(*RelayOptions)

// WithLogger задаёт logger для relay.
func WithLogger(logger *log.Entry) RelayOption {
	return func(opts *RelayOptions) {
		opts.Logger = logger
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) RelayOption {
	return func(opts *RelayOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) RelayOption {
	return func(opts *RelayOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации внутри одного цикла.
func WithMaxAttempts(maxAttempts int) RelayOption {
	return func(opts *RelayOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) RelayOption {
	return func(opts *RelayOptions) {
		opts.RetryBaseDelay = delay
	}
}

// Relay публикует неопубликованные записи outbox в брокер. Запись помечается
// processed только после подтверждённой публикации и в той же транзакции, в
// которой была прочитана; при любой ошибке цикла транзакция откатывается и
// тот же батч повторяется на следующем тике — at-least-once, никогда
// at-most-once.
type Relay struct {
	store          domain.OutboxStore
	publisher      domain.OutboxPublisher
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewRelay создаёт relay для локального outbox сервиса.
func NewRelay(store domain.OutboxStore, publisher domain.OutboxPublisher, options ...RelayOption) *Relay {
	opts := RelayOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-relay")
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	return &Relay{
		store:          store,
		publisher:      publisher,
		logger:         logger,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Run запускает периодический polling outbox до отмены ctx.
func (r *Relay) Run(ctx context.Context) {
	if r.store == nil || r.publisher == nil {
		r.logger.Warn("outbox relay is disabled: store or publisher is nil")
		return
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один polling-цикл. Недоступность брокера или
// хранилища (например, ещё не применённая схема) не фатальна: цикл
// логируется и повторяется на следующем тике.
func (r *Relay) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	r.refreshBacklogMetrics(ctx)

	err := r.store.WithinOutboxTx(ctx, func(tx domain.OutboxTx) error {
		msgs, err := tx.PullUnprocessed(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("pull unprocessed outbox messages: %w", err)
		}

		for _, msg := range msgs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := r.publishWithRetry(ctx, msg); err != nil {
				// Откатываем весь батч: ни одна запись не будет помечена,
				// повтор — на следующем тике.
				return err
			}
			if err := tx.MarkProcessed(ctx, msg.ID, time.Now().UTC()); err != nil {
				return fmt.Errorf("mark outbox message %s processed: %w", msg.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.WithError(err).Warn("outbox cycle failed, will retry next tick")
		return
	}

	r.refreshBacklogMetrics(ctx)
}

func (r *Relay) publishWithRetry(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.publisher.Publish(msg)
		if err == nil {
			relayPublishAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		relayPublishAttempts.WithLabelValues("retry_error").Inc()

		if attempt >= r.maxAttempts {
			break
		}

		delay := r.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	relayPublishAttempts.WithLabelValues("failed").Inc()
	return fmt.Errorf("publish %s after %d attempts: %w", msg.EventType, r.maxAttempts, lastErr)
}

func (r *Relay) refreshBacklogMetrics(ctx context.Context) {
	stats, err := r.store.OutboxStats(ctx)
	if err != nil {
		r.logger.WithError(err).Debug("failed to collect outbox backlog stats")
		return
	}

	relayPendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		relayOldestPendingAge.Set(0)
		return
	}

	age := time.Since(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	relayOldestPendingAge.Set(age)
}

func (r *Relay) retryBackoff(attempt int) time.Duration {
	if r.retryBaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return r.retryBaseDelay
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := r.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}
