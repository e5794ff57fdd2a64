package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published to the event bus after a state change
// has been committed.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
}

// New wraps a payload in an envelope.
func New(aggregateID, aggregateType, eventType string, version int, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
		Version:       version,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher delivers events keyed by aggregate id. The Kafka producer is the
// production implementation.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

// NopPublisher discards everything.
func NopPublisher() Publisher { return nopPublisher{} }

type fanout []Publisher

func (f fanout) Publish(ctx context.Context, key string, event any) error {
	for _, p := range f {
		if err := p.Publish(ctx, key, event); err != nil {
			return err
		}
	}
	return nil
}

// Fanout publishes to every publisher in order and stops at the first error.
// Nil entries are skipped.
func Fanout(publishers ...Publisher) Publisher {
	out := make(fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
