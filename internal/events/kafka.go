package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/pkg/movie"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes movie events to Kafka, one topic per action.
type KafkaPublisher struct {
	writer kafkaWriter
}

// NewKafkaPublisher creates a KafkaPublisher writing to brokers.
// Retries are kept short so the API stays responsive while no broker is running.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			MaxAttempts:            3,
			WriteBackoffMin:        100 * time.Millisecond,
			WriteBackoffMax:        300 * time.Millisecond,
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

// Publish writes every message of event to the event topic, keyed by movie ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event movie.Event) error {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "events.KafkaPublisher.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("messaging.destination", event.Topic))

	if !movie.ValidTopic(event.Topic) {
		return fmt.Errorf("invalid topic %q", event.Topic)
	}

	msgs := make([]kafka.Message, 0, len(event.Messages))
	for _, m := range event.Messages {
		msgs = append(msgs, kafka.Message{
			Topic: event.Topic,
			Key:   []byte(m.Key),
			Value: []byte(m.Value),
			Headers: []kafka.Header{
				{Key: "event-id", Value: []byte(uuid.NewString())},
				{Key: "content-type", Value: []byte("application/json")},
			},
		})
	}

	result := "ok"
	err := p.writer.WriteMessages(ctx, msgs...)
	if err != nil {
		result = "error"
		span.RecordError(err)
	}
	common.EventsPublishedTotal.Add(ctx, int64(len(msgs)), metric.WithAttributes(
		attribute.String("transport", "kafka"),
		attribute.String("topic", event.Topic),
		attribute.String("result", result),
	))
	if err != nil {
		return fmt.Errorf("failed to kafka.Writer.WriteMessages: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
