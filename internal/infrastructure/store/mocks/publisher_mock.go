package mocks

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/domain/event"
)

// MockPublisher records published events
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(_ context.Context, key string, evt any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: evt})
	return m.PublishErr
}

// Events returns the envelopes published so far, in order
func (m *MockPublisher) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]event.Event, 0, len(m.PublishCalls))
	for _, call := range m.PublishCalls {
		if e, ok := call.Event.(event.Event); ok {
			out = append(out, e)
		}
	}
	return out
}

// EventTypes lists the event types published so far, in order
func (m *MockPublisher) EventTypes() []string {
	events := m.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	return types
}

func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = make([]PublishCall, 0)
	m.PublishErr = nil
}
