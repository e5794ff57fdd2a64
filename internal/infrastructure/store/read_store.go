package store

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/readmodel"
)

// ReadStore is an in-memory SummaryStore
type ReadStore struct {
	mu        sync.RWMutex
	summaries map[string]*readmodel.ProductReviewSummary
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		summaries: make(map[string]*readmodel.ProductReviewSummary),
	}
}

func (rs *ReadStore) GetSummary(_ context.Context, productID string) (*readmodel.ProductReviewSummary, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	s, ok := rs.summaries[productID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (rs *ReadStore) UpdateSummary(_ context.Context, productID string, fn func(s *readmodel.ProductReviewSummary)) (*readmodel.ProductReviewSummary, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.summaries[productID]
	if !ok {
		current = readmodel.NewProductReviewSummary(productID)
	}
	working := current.Clone()
	fn(working)
	rs.summaries[productID] = working
	return working.Clone(), nil
}
