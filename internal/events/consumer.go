package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/pkg/movie"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const seenTTL = 7 * 24 * time.Hour

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduplicator remembers which messages were already handled.
type Deduplicator interface {
	Contains(key string) (bool, error)
	MarkSeen(key string, ttl time.Duration) (bool, error)
}

// Consumer reads movie events from Kafka and appends them to a Log.
type Consumer struct {
	reader     kafkaReader
	log        *Log
	dedup      Deduplicator
	retryDelay time.Duration
}

// NewConsumer creates a Consumer for every movie topic within the groupID consumer group.
// Consumption starts from the first offset when the group has no committed offset.
// dedup may be nil, in which case redelivered messages are logged again.
func NewConsumer(brokers []string, groupID string, log *Log, dedup Deduplicator) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			GroupTopics: movie.Topics,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
		}),
		log:        log,
		dedup:      dedup,
		retryDelay: time.Second,
	}
}

// Run consumes messages until ctx is done. It returns nil on cancellation and an error when the log can't be written.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			common.Log.WarnContext(ctx, "Failed to kafka.Reader.FetchMessage", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			common.Log.WarnContext(ctx, "Failed to kafka.Reader.CommitMessages", "err", err)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	result := "ok"
	defer func() {
		common.EventsConsumedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("topic", msg.Topic),
			attribute.String("result", result),
		))
	}()

	var m movie.Movie
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		result = "invalid"
		common.Log.WarnContext(ctx, "Skipping undecodable movie event", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return nil
	}

	key := fmt.Sprintf("events.seen : %s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	if c.dedup != nil {
		seen, err := c.dedup.Contains(key)
		if err != nil {
			common.Log.WarnContext(ctx, "Failed to events.Deduplicator.Contains", "err", err)
		} else if seen {
			result = "duplicate"
			return nil
		}
	}

	common.Log.InfoContext(ctx, "Received event from Kafka",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"key", string(msg.Key),
		common.MovieAttr(m),
	)

	if err := c.log.Append(LogEntry{Topic: msg.Topic, Movie: m}); err != nil {
		result = "error"
		return fmt.Errorf("failed to events.Log.Append: %w", err)
	}

	if c.dedup != nil {
		if _, err := c.dedup.MarkSeen(key, seenTTL); err != nil {
			common.Log.WarnContext(ctx, "Failed to events.Deduplicator.MarkSeen", "err", err)
		}
	}

	return nil
}
