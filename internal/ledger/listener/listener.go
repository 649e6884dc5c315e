package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/pkg/broker"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
)

// OrderListener consumes OrderCreated events from the order service and
// records each item as a purchase on behalf of the ordering buyer.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       ledger.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc ledger.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID      string             `json:"id"`
	BuyerID string             `json:"buyer_id"`
	Items   []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID int   `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event",
		zap.String("order_id", event.Payload.ID),
		zap.String("buyer_id", event.Payload.BuyerID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.BuyInput{
			Buyer:     event.Payload.BuyerID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		if _, err := l.uc.Buy(ctx, input); err != nil {
			// Terminal per call: the order service owns retries.
			l.logger.Error("Failed to record purchase for order item",
				zap.String("order_id", event.Payload.ID),
				zap.Int("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}
