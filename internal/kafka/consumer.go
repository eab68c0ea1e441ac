package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/model"
	"github.com/GDGAOU/notification-service/internal/service"
)

// DomainEvent is what the club's other services put on the events topic when
// a like, comment, share, or discount lifecycle change happens.
type DomainEvent struct {
	Type        model.Type     `json:"type"`
	RecipientID string         `json:"recipient_id"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata"`
}

type Consumer struct {
	reader     *kafka.Reader
	dlq        *kafka.Writer
	svc        *service.NotificationService
	maxRetries int
	backoff    time.Duration
	log        *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID, dlqTopic string, svc *service.NotificationService, maxRetries int, backoff time.Duration, log *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	var dlq *kafka.Writer
	if dlqTopic != "" {
		dlq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		}
	}
	return &Consumer{
		reader:     r,
		dlq:        dlq,
		svc:        svc,
		maxRetries: maxRetries,
		backoff:    backoff,
		log:        log,
	}
}

// Run consumes until ctx is cancelled. Events are handled sequentially so
// notifications for one recipient keep their topic order.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warnw("kafka read error", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if err := c.handle(ctx, m.Value); err != nil {
			c.log.Errorw("event handling failed", "error", err)
		}
	}
}

// handle publishes the event's notification, retrying transient failures with
// exponential backoff. Malformed or invalid events go straight to the DLQ;
// persist failures go there after the retry budget is spent.
func (c *Consumer) handle(ctx context.Context, raw []byte) error {
	var ev DomainEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.pushToDLQ(ctx, raw)
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			sleep := c.backoff * (1 << uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}
		_, err := c.svc.Publish(ctx, ev.RecipientID, ev.Type, ev.Message, ev.Metadata)
		if err == nil {
			return nil
		}
		if errors.Is(err, service.ErrInvalidNotification) {
			// unknown type or broken metadata: retrying cannot fix it
			c.pushToDLQ(ctx, raw)
			return err
		}
		lastErr = err
		c.log.Warnw("publish attempt failed", "attempt", attempt, "error", err)
	}

	c.pushToDLQ(ctx, raw)
	return lastErr
}

func (c *Consumer) pushToDLQ(ctx context.Context, raw []byte) {
	if c.dlq == nil {
		return
	}
	msg := kafka.Message{Value: raw, Time: time.Now()}
	if err := c.dlq.WriteMessages(ctx, msg); err != nil {
		c.log.Errorw("dlq push failed", "error", err)
	}
}

func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.dlq != nil {
		if derr := c.dlq.Close(); err == nil {
			err = derr
		}
	}
	return err
}
