package query

import (
	"context"
	"sort"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/infrastructure/store"
	"github.com/example/commerce-policy/internal/readmodel"
	"go.uber.org/zap"
)

type Handler struct {
	orderSvc  *order.Service
	reviewSvc *review.Service
	verifier  *review.Verifier
	readStore store.SummaryStore
	logger    *zap.Logger
}

func NewHandler(
	orderSvc *order.Service,
	reviewSvc *review.Service,
	verifier *review.Verifier,
	readStore store.SummaryStore,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orderSvc:  orderSvc,
		reviewSvc: reviewSvc,
		verifier:  verifier,
		readStore: readStore,
		logger:    logger,
	}
}

// Orders

// GetOrder returns an order to its owner, or to an admin.
func (h *Handler) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !o.IsOwnedBy(requesterID) {
		return nil, apperr.NewForbiddenError("order", orderID, requesterID)
	}
	return o, nil
}

// ListOrders returns a customer's orders, newest first.
func (h *Handler) ListOrders(ctx context.Context, customerID string) ([]*order.Order, error) {
	orders, err := h.orderSvc.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Reviews

func (h *Handler) IsVerifiedPurchase(ctx context.Context, customerID, productID string) (bool, error) {
	return h.verifier.IsVerifiedPurchase(ctx, customerID, productID)
}

func (h *Handler) ListReviews(ctx context.Context, productID string) ([]*review.Review, error) {
	return h.reviewSvc.ListByProduct(ctx, productID)
}

// GetReviewSummary returns the projected summary, or an empty one for a
// product nobody has reviewed.
func (h *Handler) GetReviewSummary(ctx context.Context, productID string) (*ProductReviewSummary, error) {
	s, found, err := h.readStore.GetSummary(ctx, productID)
	if err != nil {
		h.logger.Error("error getting review summary", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	if !found {
		return readmodel.NewProductReviewSummary(productID), nil
	}
	return s, nil
}
