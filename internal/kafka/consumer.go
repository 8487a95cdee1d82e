package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/config"
)

// MessageHandler accepts one payment message. A nil return means the message
// is done with, handled or deliberately dropped, and its offset may be committed.
type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Consumer reads the payments topic one message at a time. A message the
// handler refuses is retried in place until it is accepted or ctx ends; it is
// never skipped, so no later commit can cover an unhandled payment.
type Consumer struct {
	handler MessageHandler
	reader  Reader
	backoff Backoff
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) bool
}

func NewConsumer(handler MessageHandler, reader Reader, backoff Backoff, logger *zap.Logger) *Consumer {
	if backoff.Base <= 0 {
		backoff.Base = 500 * time.Millisecond
	}
	if backoff.Max < backoff.Base {
		backoff.Max = backoff.Base
	}
	return &Consumer{
		handler: handler,
		reader:  reader,
		backoff: backoff,
		logger:  logger,
		sleep:   sleepWithContext,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.logger.Info("Starting payments consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.logger.Debug("Fetch timeout (idle), backing off", zap.Error(err))
				c.sleep(ctx, 10*time.Second)
				continue
			}
			// rebalancing and coordinator changes surface here
			c.logger.Warn("FetchMessage error, backing off", zap.Error(err))
			c.sleep(ctx, 500*time.Millisecond)
			continue
		}

		if !c.handle(ctx, msg) {
			return
		}
		c.commit(ctx, msg)
	}
}

// handle reports false only when ctx ended before the handler accepted msg.
func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) bool {
	delay := c.backoff.Base
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			c.logger.Debug("Payment message handled",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
			)
			return true
		}

		c.logger.Warn("Payment message not handled, retrying",
			zap.Error(err),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
		)
		if !c.sleep(ctx, delay) {
			return false
		}
		if delay *= 2; delay > c.backoff.Max {
			delay = c.backoff.Max
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		// the next successful commit on this partition covers msg as well
		c.logger.Warn("Commit failed",
			zap.Error(err),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		return
	}
	c.logger.Debug("Message committed", zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
}

// sleepWithContext reports false when ctx ended first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}

// NewReader reads the payments topic as part of the configured consumer group.
func NewReader(cfg config.Kafka) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.PaymentsTopic,
		GroupID:     cfg.Group,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}
