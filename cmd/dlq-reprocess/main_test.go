package main

import (
	"testing"

	"github.com/IBM/sarama/mocks"
)

func TestExtractReplayMessage(t *testing.T) {
	value := []byte(`{
		"original_topic": "ofs.orders.created",
		"original_key": "order-1",
		"original_value": "{\"order_id\":\"order-1\"}",
		"error_message": "boom",
		"failed_at": "2026-01-01T00:00:00Z"
	}`)

	msg, ok := extractReplayMessage(value, "")
	if !ok {
		t.Fatal("expected message to be extracted")
	}
	if msg.topic != "ofs.orders.created" {
		t.Fatalf("unexpected topic: %s", msg.topic)
	}
	if msg.key != "order-1" {
		t.Fatalf("unexpected key: %s", msg.key)
	}
	if string(msg.value) != `{"order_id":"order-1"}` {
		t.Fatalf("unexpected value: %s", msg.value)
	}
}

func TestExtractReplayMessage_TargetOverride(t *testing.T) {
	value := []byte(`{"original_topic":"ofs.orders.created","original_key":"k","original_value":"{}"}`)

	msg, ok := extractReplayMessage(value, "ofs.orders.retry")
	if !ok {
		t.Fatal("expected message to be extracted")
	}
	if msg.topic != "ofs.orders.retry" {
		t.Fatalf("override must win, got %s", msg.topic)
	}
}

func TestExtractReplayMessage_Rejects(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		override string
	}{
		{"broken json", `{`, ""},
		{"empty value", `{"original_topic":"t","original_key":"k","original_value":""}`, ""},
		{"no topic anywhere", `{"original_key":"k","original_value":"{}"}`, ""},
		{"blank topic", `{"original_topic":"   ","original_key":"k","original_value":"{}"}`, "  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := extractReplayMessage([]byte(tc.value), tc.override); ok {
				t.Fatal("expected message to be rejected")
			}
		})
	}
}

func TestParseBrokers(t *testing.T) {
	brokers := parseBrokers(" kafka-1:9092 , ,kafka-2:9092,")
	if len(brokers) != 2 || brokers[0] != "kafka-1:9092" || brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", brokers)
	}
	if got := parseBrokers("   "); len(got) != 0 {
		t.Fatalf("blank input must produce no brokers, got %v", got)
	}
}

func TestPublishReplay(t *testing.T) {
	if err := publishReplay(nil, replayMessage{topic: "t"}); err == nil {
		t.Fatal("nil producer must fail")
	}

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	if err := publishReplay(producer, replayMessage{topic: "t", key: "k", value: []byte("{}")}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}
