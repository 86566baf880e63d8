package events

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestMemoryPublisherRecordsInOrder(t *testing.T) {
	pub := NewMemoryPublisher()
	ctx := context.Background()

	if err := pub.Publish(ctx, New(KindSessionConnected)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.Publish(ctx, New(KindBatchExecuted)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	kinds := pub.Kinds()
	if len(kinds) != 2 || kinds[0] != KindSessionConnected || kinds[1] != KindBatchExecuted {
		t.Fatalf("unexpected kinds %v", kinds)
	}

	_ = pub.Close()
	if err := pub.Publish(ctx, New(KindBatchFailed)); err == nil {
		t.Fatal("expected publish after close to fail")
	}
}

func TestEventEncodeOmitsEmptyFields(t *testing.T) {
	e := New(KindSessionDisconnected)
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	payload, err := e.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["kind"] != string(KindSessionDisconnected) {
		t.Fatalf("unexpected kind %v", decoded["kind"])
	}
	if _, ok := decoded["reference"]; ok {
		t.Fatal("expected empty reference to be omitted")
	}
}

func TestBuildPublishing(t *testing.T) {
	e := New(KindBatchExecuted)
	msg := buildPublishing(e, []byte("{}"), true)
	if msg.MessageId != e.ID || msg.Type != string(KindBatchExecuted) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Fatal("expected persistent delivery for durable queues")
	}
}

func TestConstructorsValidateConfig(t *testing.T) {
	if _, err := NewRedisPublisher(context.Background(), RedisConfig{}); err == nil {
		t.Fatal("expected empty redis address to fail")
	}
	if _, err := NewRabbitMQPublisher(RabbitMQConfig{}); err == nil {
		t.Fatal("expected empty rabbitmq url to fail")
	}
}
