package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(id, customerID string) *order.Order {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	return &order.Order{
		ID:         id,
		Number:     "ORD-20261015-" + id,
		CustomerID: customerID,
		Items: []order.Item{
			{ProductID: "7", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
		},
		Status:    order.StatusPending,
		History:   []order.Transition{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryOrderStore_SaveAndGet(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()

	o := newTestOrder("o-1", "customer-a")
	require.NoError(t, s.Save(ctx, o))
	assert.Equal(t, 1, o.Version)

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "customer-a", got.CustomerID)
	assert.Equal(t, 1, got.Version)

	// callers never share memory with the store
	got.Items[0].Quantity = 99
	again, _ := s.Get(ctx, "o-1")
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryOrderStore_SaveStaleVersion(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()

	o := newTestOrder("o-1", "customer-a")
	require.NoError(t, s.Save(ctx, o))

	stale := o.Clone()
	require.NoError(t, s.Save(ctx, o))

	err := s.Save(ctx, stale)
	_, isConflict := apperr.IsConflictError(err)
	assert.True(t, isConflict)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestMemoryOrderStore_GetMissing(t *testing.T) {
	_, err := NewMemoryOrderStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryOrderStore_ListByCustomer(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newTestOrder("o-1", "customer-a")))
	require.NoError(t, s.Save(ctx, newTestOrder("o-2", "customer-a")))
	require.NoError(t, s.Save(ctx, newTestOrder("o-3", "customer-b")))

	orders, err := s.ListByCustomer(ctx, "customer-a")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = s.ListByCustomer(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMemoryOrderStore_UpdateDiscardsOnError(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newTestOrder("o-1", "customer-a")))

	_, err := s.Update(ctx, "o-1", func(o *order.Order) error {
		o.Status = order.StatusShipped
		return order.ErrInvalidTransition
	})
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	got, _ := s.Get(ctx, "o-1")
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestMemoryOrderStore_UpdateMissing(t *testing.T) {
	_, err := NewMemoryOrderStore().Update(context.Background(), "missing", func(*order.Order) error { return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryOrderStore_ConcurrentTransitions(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newTestOrder("o-1", "customer-a")))
	_, err := s.Update(ctx, "o-1", func(o *order.Order) error {
		return o.Advance(order.StatusProcessing, time.Now())
	})
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Update(ctx, "o-1", func(o *order.Order) error {
				if i%2 == 0 {
					return o.RequestCancellation(time.Now())
				}
				return o.Advance(order.StatusShipped, time.Now())
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	got, _ := s.Get(ctx, "o-1")
	require.Len(t, got.History, 2)
	assert.Contains(t, []order.Status{order.StatusShipped, order.StatusCancelled}, got.Status)
	assert.Equal(t, got.Status, got.History[1].To)
	assert.Equal(t, 3, got.Version)
}

func TestMemoryReviewStore(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()

	r := &review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 4, Title: "Good"}
	require.NoError(t, s.Save(ctx, r))
	require.NoError(t, s.Save(ctx, &review.Review{ID: "r-2", ProductID: "8", AuthorID: "customer-a", Rating: 2, Title: "Meh"}))

	got, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)

	list, err := s.ListByProduct(ctx, "7")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r-1", list[0].ID)

	require.NoError(t, s.Delete(ctx, "r-1"))
	_, err = s.Get(ctx, "r-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "r-1"), apperr.ErrNotFound)
}

func TestMemoryReviewStore_SaveIsInsertOnly(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 4, Title: "Good"}))
	err := s.Save(ctx, &review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 1, Title: "Overwritten"})
	_, isConflict := apperr.IsConflictError(err)
	assert.True(t, isConflict)

	got, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
}

func TestMemoryReviewStore_Update(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 4, Title: "Good"}))

	updated, err := s.Update(ctx, "r-1", func(r *review.Review) error {
		r.Rating = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	_, err = s.Update(ctx, "r-1", func(r *review.Review) error {
		r.Rating = 5
		return apperr.NewValidationError("rejected")
	})
	assert.Error(t, err)

	got, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating)
}

func TestMemoryReviewStore_UpdateAfterDeleteDoesNotResurrect(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 4, Title: "Good"}))

	// an edit that read the review before the author deleted it
	stale, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "r-1"))

	called := false
	_, err = s.Update(ctx, stale.ID, func(r *review.Review) error {
		called = true
		r.Rating = 1
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, called)

	_, err = s.Get(ctx, "r-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	list, err := s.ListByProduct(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryReviewStore_ConcurrentEditAndDelete(t *testing.T) {
	s := NewMemoryReviewStore()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := "r-race"
		require.NoError(t, s.Save(ctx, &review.Review{ID: id, ProductID: "7", AuthorID: "customer-a", Rating: 4, Title: "Good"}))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Update(ctx, id, func(r *review.Review) error {
				r.Rating = 1
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Delete(ctx, id)
		}()
		wg.Wait()

		_, err := s.Get(ctx, id)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	}
}

func TestMemoryPromoStore_NormalizesCodes(t *testing.T) {
	s := NewMemoryPromoStore(&promo.Code{
		Code:  " save10 ",
		Type:  promo.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	})

	c, found, err := s.Lookup(context.Background(), "Save10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "SAVE10", c.Code)

	_, found, err = s.Lookup(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadStore_UpdateSummary(t *testing.T) {
	rs := NewReadStore()
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	_, found, err := rs.GetSummary(ctx, "7")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = rs.UpdateSummary(ctx, "7", func(s *readmodel.ProductReviewSummary) { s.AddReview(5, true, at) })
	require.NoError(t, err)
	updated, err := rs.UpdateSummary(ctx, "7", func(s *readmodel.ProductReviewSummary) { s.AddReview(2, false, at) })
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ReviewCount)

	s, found, err := rs.GetSummary(ctx, "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "3.50", s.AverageRating.StringFixed(2))
	assert.Equal(t, 1, s.VerifiedCount)
}
