package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/infrastructure/store/mocks"
	"github.com/example/commerce-policy/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testStores struct {
	orders    *mocks.MockOrderStore
	reviews   *mocks.MockReviewStore
	readStore *mocks.MockReadStore
}

func newTestQueryHandler() (*Handler, *testStores) {
	stores := &testStores{
		orders:    mocks.NewMockOrderStore(),
		reviews:   mocks.NewMockReviewStore(),
		readStore: mocks.NewMockReadStore(),
	}
	logger := zap.NewNop()
	verifier := review.NewVerifier(stores.orders)
	orderSvc := order.NewService(stores.orders, nil, logger)
	reviewSvc := review.NewService(stores.reviews, verifier, nil, logger)
	return NewHandler(orderSvc, reviewSvc, verifier, stores.readStore, logger), stores
}

func seedOrder(stores *testStores, id, customerID string, status order.Status, createdAt time.Time) {
	stores.orders.SetOrder(&order.Order{
		ID:         id,
		CustomerID: customerID,
		Items:      []order.Item{{ProductID: "7", Quantity: 1, UnitPrice: decimal.RequireFromString("9.50")}},
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_GetOrder(t *testing.T) {
	handler, stores := newTestQueryHandler()
	seedOrder(stores, "o-1", "customer-a", order.StatusPending, time.Now())

	tests := []struct {
		name        string
		orderID     string
		requesterID string
		isAdmin     bool
		wantErr     error
	}{
		{"owner", "o-1", "customer-a", false, nil},
		{"admin", "o-1", "operator", true, nil},
		{"someone else", "o-1", "customer-b", false, apperr.ErrForbidden},
		{"missing", "o-404", "customer-a", false, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := handler.GetOrder(context.Background(), tt.orderID, tt.requesterID, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "o-1", o.ID)
		})
	}
}

func TestHandler_ListOrders_NewestFirst(t *testing.T) {
	handler, stores := newTestQueryHandler()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(stores, "o-old", "customer-a", order.StatusDelivered, base)
	seedOrder(stores, "o-new", "customer-a", order.StatusPending, base.Add(48*time.Hour))
	seedOrder(stores, "o-mid", "customer-a", order.StatusShipped, base.Add(24*time.Hour))
	seedOrder(stores, "o-other", "customer-b", order.StatusPending, base)

	orders, err := handler.ListOrders(context.Background(), "customer-a")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "o-new", orders[0].ID)
	assert.Equal(t, "o-mid", orders[1].ID)
	assert.Equal(t, "o-old", orders[2].ID)
}

// ============================================
// Review Query Tests
// ============================================

func TestHandler_IsVerifiedPurchase(t *testing.T) {
	handler, stores := newTestQueryHandler()
	seedOrder(stores, "o-1", "customer-a", order.StatusDelivered, time.Now())
	seedOrder(stores, "o-2", "customer-b", order.StatusCancelled, time.Now())

	ok, err := handler.IsVerifiedPurchase(context.Background(), "customer-a", "7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = handler.IsVerifiedPurchase(context.Background(), "customer-b", "7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandler_GetReviewSummary(t *testing.T) {
	handler, stores := newTestQueryHandler()
	summary := readmodel.NewProductReviewSummary("7")
	summary.AddReview(4, true, time.Now())
	stores.readStore.SetSummary(summary)

	got, err := handler.GetReviewSummary(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, "4.00", got.AverageRating.StringFixed(2))
}

func TestHandler_GetReviewSummary_Unreviewed(t *testing.T) {
	handler, _ := newTestQueryHandler()

	got, err := handler.GetReviewSummary(context.Background(), "8")
	require.NoError(t, err)
	assert.Equal(t, "8", got.ProductID)
	assert.Equal(t, 0, got.ReviewCount)
}

func TestHandler_GetReviewSummary_StoreError(t *testing.T) {
	handler, stores := newTestQueryHandler()
	stores.readStore.GetErr = errors.New("connection reset")

	_, err := handler.GetReviewSummary(context.Background(), "7")
	assert.Error(t, err)
}

func TestHandler_ListReviews(t *testing.T) {
	handler, stores := newTestQueryHandler()
	stores.reviews.SetReview(&review.Review{ID: "r-1", ProductID: "7", AuthorID: "customer-a", Rating: 5, Title: "A"})
	stores.reviews.SetReview(&review.Review{ID: "r-2", ProductID: "9", AuthorID: "customer-a", Rating: 1, Title: "B"})

	reviews, err := handler.ListReviews(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "r-1", reviews[0].ID)
}
