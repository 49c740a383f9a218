package kafka

import (
	"context"
	"sort"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/events"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultHandlerRetries = 3
	defaultRetryDelay     = 100 * time.Millisecond
)

var (
	consumerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofs_consumer_messages_total",
		Help: "Total number of consumed messages grouped by topic and result.",
	}, []string{"topic", "result"})
	consumerReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ofs_consumer_reconnects_total",
		Help: "Total number of broker reconnect attempts.",
	})
)

// MessageHandler обрабатывает одно сообщение из Kafka. Вся единица работы
// (доменная мутация + запись в outbox) выполняется внутри одной локальной
// транзакции хранилища; nil означает, что транзакция закоммичена и
// сообщение можно подтверждать брокеру.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// Consumer — устойчивый consumer harness поверх sarama consumer group.
// Он владеет жизненным циклом подключения: создаёт группу, потребляет,
// а при потере брокера пересоздаёт её с фиксированным backoff.
// Offset коммитится только после успешного завершения handler'а
// (commit-then-ack), поэтому падение между коммитом транзакции и
// подтверждением приводит к повторной доставке, а не к потере.
type Consumer struct {
	brokers        []string
	groupID        string
	handlers       map[string]MessageHandler
	logger         *log.Entry
	dlqProducer    *Producer
	maxRetries     int
	retryDelay     time.Duration
	reconnectDelay time.Duration

	// newGroup подменяется в тестах.
	newGroup func(brokers []string, groupID string, config *sarama.Config) (sarama.ConsumerGroup, error)
}

// ConsumerOption настраивает Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger задаёт logger для harness.
func WithConsumerLogger(logger *log.Entry) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithDLQProducer задаёт producer для отправки в dead-letter топик после
// исчерпания попыток обработки.
func WithDLQProducer(producer *Producer) ConsumerOption {
	return func(c *Consumer) {
		c.dlqProducer = producer
	}
}

// WithMaxRetries задаёт число попыток обработки одного сообщения.
func WithMaxRetries(n int) ConsumerOption {
	return func(c *Consumer) {
		c.maxRetries = n
	}
}

// WithReconnectDelay задаёт паузу между попытками переподключения к брокеру.
func WithReconnectDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.reconnectDelay = d
	}
}

// WithRetryDelay задаёт паузу между попытками обработки сообщения.
func WithRetryDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.retryDelay = d
	}
}

// NewConsumer создаёт harness для набора (топик → handler) регистраций.
func NewConsumer(brokers []string, groupID string, handlers map[string]MessageHandler, options ...ConsumerOption) *Consumer {
	c := &Consumer{
		brokers:        brokers,
		groupID:        groupID,
		handlers:       handlers,
		logger:         log.WithField("component", "kafka-consumer"),
		maxRetries:     defaultHandlerRetries,
		retryDelay:     defaultRetryDelay,
		reconnectDelay: defaultReconnectDelay,
		newGroup:       newConsumerGroup,
	}
	for _, option := range options {
		option(c)
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultHandlerRetries
	}
	if c.reconnectDelay <= 0 {
		c.reconnectDelay = defaultReconnectDelay
	}
	return c
}

func newConsumerGroup(brokers []string, groupID string, config *sarama.Config) (sarama.ConsumerGroup, error) {
	return sarama.NewConsumerGroup(brokers, groupID, config)
}

func (c *Consumer) topics() []string {
	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Run держит подключение к брокеру до отмены ctx. Недостижимый брокер и
// неожиданные ошибки не фатальны: harness ждёт reconnectDelay и пробует
// снова; неподтверждённые сообщения будут доставлены повторно.
func (c *Consumer) Run(ctx context.Context) error {
	topics := c.topics()
	logger := c.logger.WithFields(log.Fields{
		"group_id": c.groupID,
		"topics":   topics,
	})

	for {
		if ctx.Err() != nil {
			return nil
		}

		config := sarama.NewConfig()
		config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
		config.Consumer.Return.Errors = true

		group, err := c.newGroup(c.brokers, c.groupID, config)
		if err != nil {
			consumerReconnects.Inc()
			logger.WithError(err).Error("broker unreachable, retrying")
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		logger.Info("kafka consumer connected")

		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for err := range group.Errors() {
				logger.WithError(err).Error("consumer error")
			}
		}()

		for {
			// Consume вызывается в цикле: при rebalance он завершается без ошибки.
			if err := group.Consume(ctx, topics, c); err != nil {
				logger.WithError(err).Error("consume session failed")
				break
			}
			if ctx.Err() != nil {
				break
			}
		}

		if err := group.Close(); err != nil {
			logger.WithError(err).Warn("failed to close consumer group")
		}
		<-drained

		if ctx.Err() != nil {
			logger.Info("kafka consumer stopped")
			return nil
		}

		consumerReconnects.Inc()
		if !c.wait(ctx) {
			return nil
		}
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.reconnectDelay):
		return true
	}
}

// Setup вызывается при старте consumer session
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup вызывается при завершении consumer session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim обрабатывает сообщения из partition. Сообщение помечается
// обработанным только после успешного handler'а либо после отправки в DLQ.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			c.logger.WithFields(log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			}).Debug("received message")

			if err := c.handleMessage(session.Context(), message); err != nil {
				// Не помечаем: после переподключения сообщение придёт снова.
				c.logger.WithError(err).WithFields(log.Fields{
					"topic":     message.Topic,
					"partition": message.Partition,
					"offset":    message.Offset,
				}).Error("message processing failed, will be redelivered")
				return err
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// handleMessage выполняет handler с ограниченным числом попыток и уводит
// неисправимые сообщения в dead-letter топик, исключая бесконечный
// poison-цикл. Без настроенного DLQ ошибка возвращается наружу: offset не
// коммитится и сообщение будет доставлено повторно.
func (c *Consumer) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	handler, ok := c.handlers[message.Topic]
	if !ok {
		// Регистрации статичны, сюда попадать не должны.
		c.logger.WithField("topic", message.Topic).Error("no handler registered for topic, dropping message")
		consumerMessages.WithLabelValues(message.Topic, "dropped").Inc()
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := handler(ctx, message)
		if err == nil {
			consumerMessages.WithLabelValues(message.Topic, "ok").Inc()
			return nil
		}
		lastErr = err

		if attempt < c.maxRetries {
			c.logger.WithError(err).WithFields(log.Fields{
				"topic":   message.Topic,
				"attempt": attempt,
			}).Warn("message processing failed, will retry")
			if c.retryDelay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay * time.Duration(attempt)):
				}
			}
		}
	}

	if c.dlqProducer != nil {
		if dlqErr := c.sendToDLQ(message, lastErr); dlqErr != nil {
			c.logger.WithError(dlqErr).Error("failed to send message to DLQ")
			consumerMessages.WithLabelValues(message.Topic, "dlq_failed").Inc()
			return lastErr
		}
		c.logger.WithFields(log.Fields{
			"topic":  message.Topic,
			"offset": message.Offset,
		}).Info("message sent to DLQ after max retries")
		consumerMessages.WithLabelValues(message.Topic, "dlq").Inc()
		return nil
	}

	consumerMessages.WithLabelValues(message.Topic, "error").Inc()
	return lastErr
}

// sendToDLQ отправляет необработанное сообщение в dead-letter топик вместе
// с метаданными оригинала для последующего replay (cmd/dlq-reprocess).
func (c *Consumer) sendToDLQ(message *sarama.ConsumerMessage, processingErr error) error {
	dlqMessage := map[string]interface{}{
		"original_topic":     message.Topic,
		"original_partition": message.Partition,
		"original_offset":    message.Offset,
		"original_key":       string(message.Key),
		"original_value":     string(message.Value),
		"error_message":      processingErr.Error(),
		"failed_at":          time.Now().UTC().Format(time.RFC3339),
	}

	return c.dlqProducer.PublishEvent(
		events.TopicDeadLetter,
		string(message.Key),
		dlqMessage,
	)
}
