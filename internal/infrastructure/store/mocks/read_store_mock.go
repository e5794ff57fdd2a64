package mocks

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/readmodel"
)

// MockReadStore is a mock implementation of store.SummaryStore for testing
type MockReadStore struct {
	mu        sync.Mutex
	summaries map[string]*readmodel.ProductReviewSummary

	// For tracking calls in tests
	GetCalls    []string
	UpdateCalls []string

	GetErr    error
	UpdateErr error
}

// NewMockReadStore creates a new MockReadStore
func NewMockReadStore() *MockReadStore {
	return &MockReadStore{
		summaries:   make(map[string]*readmodel.ProductReviewSummary),
		GetCalls:    make([]string, 0),
		UpdateCalls: make([]string, 0),
	}
}

func (m *MockReadStore) GetSummary(_ context.Context, productID string) (*readmodel.ProductReviewSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, productID)
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	s, ok := m.summaries[productID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *MockReadStore) UpdateSummary(_ context.Context, productID string, fn func(s *readmodel.ProductReviewSummary)) (*readmodel.ProductReviewSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, productID)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	current, ok := m.summaries[productID]
	if !ok {
		current = readmodel.NewProductReviewSummary(productID)
	}
	working := current.Clone()
	fn(working)
	m.summaries[productID] = working
	return working.Clone(), nil
}

// SetSummary seeds a summary directly for testing
func (m *MockReadStore) SetSummary(s *readmodel.ProductReviewSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.ProductID] = s.Clone()
}

// Summary returns the stored summary without recording a call
func (m *MockReadStore) Summary(productID string) (*readmodel.ProductReviewSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[productID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}
