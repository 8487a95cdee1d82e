package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter writes to topic with small batches; order events are low volume.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafkago.RequireOne,
	}
}

// Publisher emits order events keyed by intent id, so events of one intent stay ordered.
type Publisher struct {
	writer Writer
	logger *zap.Logger
}

func NewPublisher(w Writer, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.OrderEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatInt(ev.IntentID, 10)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "event-id", Value: []byte(ev.ID)},
		},
	})
	if err != nil {
		return err
	}
	p.logger.Debug("Order event published",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.Int64("intent_id", ev.IntentID),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
