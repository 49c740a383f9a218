package events

import "testing"

func TestTopicFor(t *testing.T) {
	cases := []struct {
		eventType string
		topic     string
	}{
		{TypeOrderCreated, TopicOrderCreated},
		{TypeStockReserved, TopicStockReserved},
		{TypeStockFailed, TopicStockFailed},
		{TypePaymentSucceeded, TopicPaymentSucceeded},
		{TypePaymentFailed, TopicPaymentFailed},
	}

	for _, tc := range cases {
		topic, ok := TopicFor(tc.eventType)
		if !ok {
			t.Fatalf("expected topic for %s", tc.eventType)
		}
		if topic != tc.topic {
			t.Fatalf("expected %s for %s, got %s", tc.topic, tc.eventType, topic)
		}
	}

	if _, ok := TopicFor("UnknownEvent"); ok {
		t.Fatal("unknown event type must not resolve to a topic")
	}
}

func TestAllTopics(t *testing.T) {
	topics := AllTopics()
	if len(topics) != 5 {
		t.Fatalf("expected 5 business topics, got %d", len(topics))
	}
	for _, topic := range topics {
		if topic == TopicDeadLetter {
			t.Fatal("dead-letter topic must not be listed among business topics")
		}
	}
}

func TestNewEventMeta(t *testing.T) {
	evt := NewOrderCreated("order-1", "product-1", 2, 500)

	if evt.EventID == "" {
		t.Fatal("expected generated event id")
	}
	if evt.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be set")
	}
	if evt.Version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, evt.Version)
	}
}
