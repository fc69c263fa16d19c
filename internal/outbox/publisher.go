package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-retail/internal/models"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers a batch of events. When only some fail it returns
// PublishErrors so the relay can keep the successes.
type Publisher interface {
	Publish(ctx context.Context, events []models.OutboxEvent) error
	Close() error
}

// PublishErrors holds one entry per event of a batch; nil entries were delivered.
type PublishErrors []error

func (e PublishErrors) Error() string {
	n := 0
	for _, err := range e {
		if err != nil {
			n++
		}
	}
	return fmt.Sprintf("%d of %d events not published", n, len(e))
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events synchronously; each event's Topic selects the topic.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		MaxAttempts:  3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka: "+msg, args...)
		}),
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		msgs[i] = kafka.Message{
			Topic: e.Topic,
			Key:   []byte(e.Key),
			Value: []byte(e.Payload),
			Time:  e.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event-id", Value: []byte(e.ID)},
			},
		}
	}
	err := p.w.WriteMessages(ctx, msgs...)
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		return PublishErrors(werrs)
	}
	return err
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// LogPublisher logs events instead of sending them; used when no brokers are configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, events []models.OutboxEvent) error {
	for _, e := range events {
		p.Log.Info().Str("topic", e.Topic).Str("key", e.Key).Str("event_id", e.ID).Msg("outbox event")
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
