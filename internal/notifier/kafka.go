package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

// Producer is the slice of the broker client this sink needs.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Envelope is the wire format published to the notifications topic.
type Envelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   model.Event `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type KafkaNotifier struct {
	producer Producer
}

func NewKafkaNotifier(producer Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event model.Event) error {
	env := Envelope{
		EventID:   uuid.New().String(),
		EventType: event.Type(),
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	// Key by event type so consumers get per-type ordering.
	return n.producer.Publish(ctx, []byte(env.EventType), data)
}
