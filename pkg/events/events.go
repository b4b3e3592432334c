// Package events publishes domain events (itinerary generated, cart confirmed)
// to Kafka, or to the log when no brokers are configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"itinera/pkg/config"
)

// Event types.
const (
	TypeItineraryGenerated = "itinerary.generated"
	TypeGenerationFailed   = "itinerary.failed"
	TypeCartConfirmed      = "cart.confirmed"
)

// Event is one domain event. Data must be JSON-encodable.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Data      any       `json:"data,omitempty"`
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured, a log publisher otherwise.
func New(cfg config.EventsConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return NewLog(slog.Default())
	}
	return NewKafka(cfg.Brokers, cfg.Topic)
}

// Kafka publishes events as JSON messages keyed by session id, so one
// session's events stay ordered on a single partition.
type Kafka struct {
	w *kafka.Writer
}

// NewKafka creates an async Kafka publisher.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				slog.Warn("Event delivery failed", "topic", topic, "count", len(msgs), "error", err)
			}
		},
	}}
}

// Publish enqueues the event. Delivery errors surface through the log.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (k *Kafka) Close() error {
	return k.w.Close()
}

func encode(e Event) (kafka.Message, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.SessionID),
		Value: data,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}

// Log writes events to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log publisher.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Publish logs the event at INFO.
func (l *Log) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	l.logger.InfoContext(ctx, "Event", "type", e.Type, "session_id", e.SessionID, "data", string(data))
	return nil
}

// Close is a no-op.
func (l *Log) Close() error { return nil }
