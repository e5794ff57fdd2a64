package mocks

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/review"
)

// MockReviewStore is a mock implementation of review.Store for testing
type MockReviewStore struct {
	mu      sync.Mutex
	reviews map[string]*review.Review

	SaveCalls   []*review.Review
	UpdateCalls []string
	DeleteCalls []string

	GetErr    error
	SaveErr   error
	UpdateErr error
	DeleteErr error
	ListErr   error

	// BeforeUpdate runs before Update takes the lock, letting a test
	// interleave another write with an edit.
	BeforeUpdate func(id string)
}

func NewMockReviewStore() *MockReviewStore {
	return &MockReviewStore{
		reviews:     make(map[string]*review.Review),
		SaveCalls:   make([]*review.Review, 0),
		UpdateCalls: make([]string, 0),
		DeleteCalls: make([]string, 0),
	}
}

func (m *MockReviewStore) Get(_ context.Context, id string) (*review.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	r, ok := m.reviews[id]
	if !ok {
		return nil, apperr.NewNotFoundError("review", id)
	}
	return r.Clone(), nil
}

func (m *MockReviewStore) Save(_ context.Context, r *review.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, r.Clone())
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.reviews[r.ID] = r.Clone()
	return nil
}

func (m *MockReviewStore) Update(_ context.Context, id string, mutate func(r *review.Review) error) (*review.Review, error) {
	if m.BeforeUpdate != nil {
		m.BeforeUpdate(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, id)
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	current, ok := m.reviews[id]
	if !ok {
		return nil, apperr.NewNotFoundError("review", id)
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	m.reviews[id] = working.Clone()
	return working, nil
}

func (m *MockReviewStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.reviews[id]; !ok {
		return apperr.NewNotFoundError("review", id)
	}
	delete(m.reviews, id)
	return nil
}

func (m *MockReviewStore) ListByProduct(_ context.Context, productID string) ([]*review.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]*review.Review, 0)
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// SetReview seeds a review directly for testing
func (m *MockReviewStore) SetReview(r *review.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[r.ID] = r.Clone()
}

// GetReview returns the stored copy without recording a call
func (m *MockReviewStore) GetReview(id string) (*review.Review, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}
