package command

import (
	"context"
	"strings"

	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is a priced cart.
type Quote struct {
	Totals    pricing.Totals `json:"totals"`
	PromoCode string         `json:"promo_code,omitempty"`
}

type Handler struct {
	calculator *pricing.Calculator
	promos     *promo.Resolver
	orderSvc   *order.Service
	reviewSvc  *review.Service
	logger     *zap.Logger
}

func NewHandler(
	calculator *pricing.Calculator,
	promos *promo.Resolver,
	orderSvc *order.Service,
	reviewSvc *review.Service,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		calculator: calculator,
		promos:     promos,
		orderSvc:   orderSvc,
		reviewSvc:  reviewSvc,
		logger:     logger,
	}
}

// ComputeTotals prices a cart. A promo code, if given, adjusts the subtotal
// before tax and shipping are evaluated.
func (h *Handler) ComputeTotals(ctx context.Context, cmd ComputeTotals) (*Quote, error) {
	subtotal, err := h.calculator.Subtotal(cmd.Items)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var code string
	if strings.TrimSpace(cmd.PromoCode) != "" {
		app, err := h.promos.Apply(ctx, cmd.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = app.Discount
		code = app.Code.Code
	}

	return &Quote{
		Totals:    h.calculator.Totals(subtotal, discount),
		PromoCode: code,
	}, nil
}

// PlaceOrder prices the cart and records a pending order with
// price-at-purchase line snapshots.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	quote, err := h.ComputeTotals(ctx, ComputeTotals{Items: cmd.Items, PromoCode: cmd.PromoCode})
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, len(cmd.Items))
	for i, li := range cmd.Items {
		items[i] = order.Item{ProductID: li.ProductID, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
	}

	return h.orderSvc.Place(ctx, order.PlaceOrder{
		CustomerID:    cmd.CustomerID,
		CustomerEmail: cmd.CustomerEmail,
		Items:         items,
		Totals:        quote.Totals,
		PromoCode:     quote.PromoCode,
	})
}

func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*order.Order, error) {
	return h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.RequesterID)
}

func (h *Handler) AdvanceOrder(ctx context.Context, cmd AdvanceOrder) (*order.Order, error) {
	next, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.orderSvc.Advance(ctx, cmd.OrderID, next)
}

func (h *Handler) CreateReview(ctx context.Context, cmd CreateReview) (*review.Review, error) {
	return h.reviewSvc.Create(ctx, cmd.ProductID, cmd.AuthorID, cmd.Rating, cmd.Title, cmd.Body)
}

func (h *Handler) EditReview(ctx context.Context, cmd EditReview) (*review.Review, error) {
	return h.reviewSvc.Edit(ctx, cmd.ReviewID, cmd.RequesterID, cmd.Edit)
}

func (h *Handler) DeleteReview(ctx context.Context, cmd DeleteReview) error {
	return h.reviewSvc.Delete(ctx, cmd.ReviewID, cmd.RequesterID)
}
