package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	r.keys = append(r.keys, key)
	return r.err
}

func TestNew_WrapsPayload(t *testing.T) {
	evt, err := New("order-1", "Order", "OrderPlaced", 1, map[string]string{"order_id": "order-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "order-1", evt.AggregateID)
	assert.Equal(t, "Order", evt.AggregateType)
	assert.Equal(t, 1, evt.Version)
	assert.False(t, evt.Timestamp.IsZero())

	var payload map[string]string
	require.NoError(t, evt.Decode(&payload))
	assert.Equal(t, "order-1", payload["order_id"])
}

func TestNew_UnmarshalablePayload(t *testing.T) {
	_, err := New("x", "Order", "OrderPlaced", 1, make(chan int))
	assert.Error(t, err)
}

func TestFanout_PublishesInOrderAndStopsOnError(t *testing.T) {
	first := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	last := &recordingPublisher{}

	err := Fanout(first, nil, failing, last).Publish(context.Background(), "k", "v")

	assert.EqualError(t, err, "broker down")
	assert.Equal(t, []string{"k"}, first.keys)
	assert.Equal(t, []string{"k"}, failing.keys)
	assert.Empty(t, last.keys)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher().Publish(context.Background(), "k", nil))
}
