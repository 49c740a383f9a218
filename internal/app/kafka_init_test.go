package app

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/messaging/kafka"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger.WithField("component", "test")
}

func TestInitKafkaProducer_NoBrokers(t *testing.T) {
	producer, err := initKafkaProducer(context.Background(), nil, time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("expected degraded mode without brokers, got %v", err)
	}
	if producer != nil {
		t.Fatal("expected nil producer without brokers")
	}
}

func TestInitKafkaProducer_RetriesUntilAvailable(t *testing.T) {
	original := newProducer
	defer func() { newProducer = original }()

	attempts := 0
	newProducer = func([]string) (*kafka.Producer, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("broker unreachable")
		}
		return &kafka.Producer{}, nil
	}

	producer, err := initKafkaProducer(context.Background(), []string{"localhost:9092"}, time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("expected producer after retries, got %v", err)
	}
	if producer == nil {
		t.Fatal("expected producer, got nil")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 connect attempts, got %d", attempts)
	}
}

func TestInitKafkaProducer_StopsOnCancel(t *testing.T) {
	original := newProducer
	defer func() { newProducer = original }()

	newProducer = func([]string) (*kafka.Producer, error) {
		return nil, errors.New("broker unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := initKafkaProducer(ctx, []string{"localhost:9092"}, time.Minute, testLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
