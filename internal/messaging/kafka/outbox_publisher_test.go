package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ofs/internal/domain"
	"github.com/vladislavdragonenkov/ofs/internal/events"
)

func outboxMessage(eventType string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            "msg-1",
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"order-1"}`),
		OccurredAt:    time.Now().UTC(),
	}
}

func TestOutboxPublisher_Publish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndSucceed()

	publisher := NewOutboxPublisher(&Producer{producer: mockProducer, logger: log.WithField("test", "outbox-publisher")})
	if err := publisher.Publish(outboxMessage(events.TypeOrderCreated)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_UnknownEventType(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	publisher := NewOutboxPublisher(&Producer{producer: mockProducer, logger: log.WithField("test", "outbox-publisher")})
	if err := publisher.Publish(outboxMessage("UnknownEvent")); err == nil {
		t.Fatal("expected error for unregistered event type")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_NotInitialized(t *testing.T) {
	publisher := NewOutboxPublisher(nil)
	if err := publisher.Publish(outboxMessage(events.TypeOrderCreated)); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
