package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceOrder is an already priced checkout.
type PlaceOrder struct {
	CustomerID    string
	CustomerEmail string
	Items         []Item
	Totals        pricing.Totals
	PromoCode     string
}

type Service struct {
	store     Store
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, publisher event.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = event.NopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Place creates a pending order from a priced checkout.
func (s *Service) Place(ctx context.Context, cmd PlaceOrder) (*Order, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if cmd.CustomerID == "" {
		return nil, apperr.NewValidationError("customer id is required",
			apperr.ValidationDetail{Field: "customer_id", Message: "required"})
	}

	now := s.now()
	id := uuid.New().String()
	o := &Order{
		ID:            id,
		Number:        orderNumber(id, now),
		CustomerID:    cmd.CustomerID,
		CustomerEmail: cmd.CustomerEmail,
		Items:         append([]Item(nil), cmd.Items...),
		Totals:        cmd.Totals,
		PromoCode:     cmd.PromoCode,
		Status:        StatusPending,
		History:       []Transition{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("number", o.Number),
		zap.String("customer_id", o.CustomerID),
		zap.String("total", o.Totals.Total.StringFixed(pricing.MinorUnits)),
	)

	s.publish(ctx, o, EventOrderPlaced, OrderPlaced{
		OrderID:       o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		CustomerEmail: o.CustomerEmail,
		Items:         o.Items,
		Totals:        o.Totals,
		PromoCode:     o.PromoCode,
		PlacedAt:      o.CreatedAt,
	})

	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.store.Get(ctx, orderID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// Cancel cancels an order on behalf of its owner. The ownership check and
// the transition run inside the store's per-order critical section.
func (s *Service) Cancel(ctx context.Context, orderID, requesterID string) (*Order, error) {
	var from Status
	updated, err := s.store.Update(ctx, orderID, func(o *Order) error {
		if !o.IsOwnedBy(requesterID) {
			return apperr.NewForbiddenError("order", orderID, requesterID)
		}
		from = o.Status
		return o.RequestCancellation(s.now())
	})
	if err != nil {
		s.logger.Info("order cancellation rejected",
			zap.String("order_id", orderID),
			zap.String("requester_id", requesterID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
	)
	s.publishStatusChanged(ctx, updated, from)
	return updated, nil
}

// Advance moves an order along the lifecycle. It performs no ownership
// check; callers gate it on an operator role.
func (s *Service) Advance(ctx context.Context, orderID string, next Status) (*Order, error) {
	var from Status
	updated, err := s.store.Update(ctx, orderID, func(o *Order) error {
		from = o.Status
		return o.Advance(next, s.now())
	})
	if err != nil {
		s.logger.Info("order transition rejected",
			zap.String("order_id", orderID),
			zap.String("to", string(next)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order advanced",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	s.publishStatusChanged(ctx, updated, from)
	return updated, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, o *Order, from Status) {
	s.publish(ctx, o, EventTypeFor(o.Status), StatusChanged{
		OrderID:       o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		CustomerEmail: o.CustomerEmail,
		From:          from,
		To:            o.Status,
		ChangedAt:     o.UpdatedAt,
	})
}

// publish runs after the state change has been committed, so a delivery
// failure is logged rather than returned.
func (s *Service) publish(ctx context.Context, o *Order, eventType string, payload any) {
	evt, err := event.New(o.ID, AggregateType, eventType, o.Version, payload)
	if err != nil {
		s.logger.Error("failed to build order event", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, o.ID, evt); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("order_id", o.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func orderNumber(id string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}
