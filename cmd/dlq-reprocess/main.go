package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/events"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	idleTimeout time.Duration
}

type replayMessage struct {
	topic string
	key   string
	value []byte
}

// dlqPayload — формат, в котором consumer harness откладывает ядовитые
// сообщения в dead-letter топик.
type dlqPayload struct {
	OriginalTopic string `json:"original_topic"`
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	ErrorMessage  string `json:"error_message"`
	FailedAt      string `json:"failed_at"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig()
	if err != nil {
		fail("%v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func readConfig() (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	flag.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: OFS_KAFKA_BROKERS)")
	flag.StringVar(&cfg.sourceTopic, "source-topic", events.TopicDeadLetter, "DLQ source topic")
	flag.StringVar(&cfg.targetTopic, "target-topic", "", "override target topic (default: original topic from the DLQ record)")
	flag.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of messages to scan/replay")
	flag.BoolVar(&cfg.execute, "execute", false, "execute replay; default is dry-run")
	flag.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	flag.Parse()

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("OFS_KAFKA_BROKERS")
	}

	cfg.brokers = parseBrokers(brokersRaw)
	if len(cfg.brokers) == 0 {
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or OFS_KAFKA_BROKERS)")
	}
	if strings.TrimSpace(cfg.sourceTopic) == "" {
		return config{}, fmt.Errorf("source-topic is required")
	}
	if cfg.limit <= 0 {
		return config{}, fmt.Errorf("limit must be > 0")
	}
	if cfg.idleTimeout <= 0 {
		return config{}, fmt.Errorf("idle-timeout must be > 0")
	}

	return cfg, nil
}

func parseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		broker := strings.TrimSpace(chunk)
		if broker == "" {
			continue
		}
		brokers = append(brokers, broker)
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	log.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"limit":        cfg.limit,
		"execute":      cfg.execute,
	}).Info("starting dlq replay")

	clientConfig := sarama.NewConfig()
	clientConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, clientConfig)
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer func() { _ = client.Close() }()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	var producer sarama.SyncProducer
	if cfg.execute {
		producerConfig := sarama.NewConfig()
		producerConfig.Producer.RequiredAcks = sarama.WaitForAll
		producerConfig.Producer.Retry.Max = 5
		producerConfig.Producer.Return.Successes = true
		producerConfig.Producer.Compression = sarama.CompressionSnappy
		producerConfig.Producer.Idempotent = true
		producerConfig.Net.MaxOpenRequests = 1

		producer, err = sarama.NewSyncProducer(cfg.brokers, producerConfig)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
	}

	partitions, err := client.Partitions(cfg.sourceTopic)
	if err != nil {
		return fmt.Errorf("get partitions for topic %s: %w", cfg.sourceTopic, err)
	}
	if len(partitions) == 0 {
		log.WithField("topic", cfg.sourceTopic).Warn("source topic has no partitions")
		return nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	var processed, replayed, skipped int
	for _, partition := range partitions {
		if processed >= cfg.limit {
			break
		}

		p, r, s, err := processPartition(ctx, cfg, client, consumer, producer, partition, cfg.limit-processed)
		if err != nil {
			return err
		}
		processed += p
		replayed += r
		skipped += s
	}

	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	log.WithFields(log.Fields{
		"mode":      mode,
		"processed": processed,
		"replayed":  replayed,
		"skipped":   skipped,
	}).Info("dlq replay finished")

	return nil
}

func processPartition(
	ctx context.Context,
	cfg config,
	client sarama.Client,
	consumer sarama.Consumer,
	producer sarama.SyncProducer,
	partition int32,
	limit int,
) (processed, replayed, skipped int, err error) {
	oldest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return 0, 0, 0, nil
	}

	partitionConsumer, err := consumer.ConsumePartition(cfg.sourceTopic, partition, oldest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = partitionConsumer.Close() }()

	idleTimer := time.NewTimer(cfg.idleTimeout)
	defer idleTimer.Stop()

	for processed < limit {
		select {
		case <-ctx.Done():
			return processed, replayed, skipped, ctx.Err()
		case consumeErr := <-partitionConsumer.Errors():
			if consumeErr != nil {
				return processed, replayed, skipped, fmt.Errorf("partition %d consumer error: %w", partition, consumeErr)
			}
		case msg, ok := <-partitionConsumer.Messages():
			if !ok || msg == nil {
				return processed, replayed, skipped, nil
			}

			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(cfg.idleTimeout)

			processed++

			replayMsg, ok := extractReplayMessage(msg.Value, cfg.targetTopic)
			if !ok {
				skipped++
				log.WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Warn("skip unsupported dlq message")
			} else if cfg.execute {
				if err := publishReplay(producer, replayMsg); err != nil {
					return processed, replayed, skipped, fmt.Errorf("publish replay message: %w", err)
				}
				replayed++
			} else {
				log.WithFields(log.Fields{
					"partition":    msg.Partition,
					"offset":       msg.Offset,
					"target_topic": replayMsg.topic,
					"key":          replayMsg.key,
				}).Info("dlq replay candidate")
				replayed++
			}

			if msg.Offset+1 >= newest {
				return processed, replayed, skipped, nil
			}
		case <-idleTimer.C:
			return processed, replayed, skipped, nil
		}
	}

	return processed, replayed, skipped, nil
}

// extractReplayMessage восстанавливает исходное сообщение из dead-letter
// записи. targetOverride заменяет топик, если задан.
func extractReplayMessage(value []byte, targetOverride string) (replayMessage, bool) {
	var payload dlqPayload
	if err := json.Unmarshal(value, &payload); err != nil {
		return replayMessage{}, false
	}
	if payload.OriginalValue == "" {
		return replayMessage{}, false
	}

	topic := strings.TrimSpace(targetOverride)
	if topic == "" {
		topic = strings.TrimSpace(payload.OriginalTopic)
	}
	if topic == "" {
		return replayMessage{}, false
	}

	return replayMessage{
		topic: topic,
		key:   payload.OriginalKey,
		value: []byte(payload.OriginalValue),
	}, true
}

func publishReplay(producer sarama.SyncProducer, msg replayMessage) error {
	if producer == nil {
		return fmt.Errorf("producer is nil")
	}

	_, _, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic:     msg.topic,
		Key:       sarama.StringEncoder(msg.key),
		Value:     sarama.ByteEncoder(msg.value),
		Timestamp: time.Now().UTC(),
	})
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
