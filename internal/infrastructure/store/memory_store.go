package store

import (
	"context"
	"sync"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/example/commerce-policy/internal/domain/review"
)

// MemoryOrderStore keeps orders in process memory. Update holds the write
// lock for the whole mutate callback, which serializes every transition.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*order.Order)}
}

func (s *MemoryOrderStore) Get(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NewNotFoundError("order", id)
	}
	return o.Clone(), nil
}

// Save inserts or overwrites an order. The caller's Version must match the
// stored one; it is incremented on success.
func (s *MemoryOrderStore) Save(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.orders[o.ID]; ok && current.Version != o.Version {
		return apperr.NewConflictError("order", o.ID, o.Version)
	}
	o.Version++
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *MemoryOrderStore) ListByCustomer(_ context.Context, customerID string) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*order.Order, 0)
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (s *MemoryOrderStore) Update(_ context.Context, id string, mutate func(o *order.Order) error) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return nil, apperr.NewNotFoundError("order", id)
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.Version = current.Version + 1
	s.orders[id] = working.Clone()
	return working, nil
}

type MemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*review.Review
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{reviews: make(map[string]*review.Review)}
}

func (s *MemoryReviewStore) Get(_ context.Context, id string) (*review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, apperr.NewNotFoundError("review", id)
	}
	return r.Clone(), nil
}

func (s *MemoryReviewStore) Save(_ context.Context, r *review.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reviews[r.ID]; exists {
		return apperr.NewConflictError("review", r.ID, 0)
	}
	s.reviews[r.ID] = r.Clone()
	return nil
}

func (s *MemoryReviewStore) Update(_ context.Context, id string, mutate func(r *review.Review) error) (*review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reviews[id]
	if !ok {
		return nil, apperr.NewNotFoundError("review", id)
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.reviews[id] = working.Clone()
	return working, nil
}

func (s *MemoryReviewStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return apperr.NewNotFoundError("review", id)
	}
	delete(s.reviews, id)
	return nil
}

func (s *MemoryReviewStore) ListByProduct(_ context.Context, productID string) ([]*review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*review.Review, 0)
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// MemoryPromoStore is a fixed promo catalog keyed by normalized code.
type MemoryPromoStore struct {
	mu    sync.RWMutex
	codes map[string]promo.Code
}

func NewMemoryPromoStore(codes ...*promo.Code) *MemoryPromoStore {
	s := &MemoryPromoStore{codes: make(map[string]promo.Code)}
	for _, c := range codes {
		_ = s.Put(context.Background(), c)
	}
	return s
}

func (s *MemoryPromoStore) Put(_ context.Context, c *promo.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.Code = promo.Normalize(c.Code)
	s.codes[stored.Code] = stored
	return nil
}

func (s *MemoryPromoStore) Lookup(_ context.Context, code string) (*promo.Code, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[promo.Normalize(code)]
	if !ok {
		return nil, false, nil
	}
	return &c, true, nil
}
