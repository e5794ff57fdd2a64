package mocks

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
)

// MockOrderStore is a mock implementation of order.Store for testing
type MockOrderStore struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	// For tracking calls in tests
	SaveCalls   []*order.Order
	UpdateCalls []string
	ListCalls   []string

	GetErr    error
	SaveErr   error
	UpdateErr error
	ListErr   error
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders:      make(map[string]*order.Order),
		SaveCalls:   make([]*order.Order, 0),
		UpdateCalls: make([]string, 0),
		ListCalls:   make([]string, 0),
	}
}

func (m *MockOrderStore) Get(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NewNotFoundError("order", id)
	}
	return o.Clone(), nil
}

func (m *MockOrderStore) Save(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, o.Clone())
	if m.SaveErr != nil {
		return m.SaveErr
	}
	o.Version++
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *MockOrderStore) ListByCustomer(_ context.Context, customerID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls = append(m.ListCalls, customerID)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*order.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (m *MockOrderStore) Update(_ context.Context, id string, mutate func(o *order.Order) error) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, id)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	current, ok := m.orders[id]
	if !ok {
		return nil, apperr.NewNotFoundError("order", id)
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.Version++
	m.orders[id] = working.Clone()
	return working, nil
}

// SetOrder seeds an order directly for testing
func (m *MockOrderStore) SetOrder(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

// GetOrder returns the stored copy without recording a call
func (m *MockOrderStore) GetOrder(id string) (*order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Reset clears all orders and recorded calls
func (m *MockOrderStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = make(map[string]*order.Order)
	m.SaveCalls = make([]*order.Order, 0)
	m.UpdateCalls = make([]string, 0)
	m.ListCalls = make([]string, 0)
	m.GetErr, m.SaveErr, m.UpdateErr, m.ListErr = nil, nil, nil, nil
}
