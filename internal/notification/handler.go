package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/email"
	"go.uber.org/zap"
)

// Mailer is the subset of the email service the notifier needs.
type Mailer interface {
	SendOrderConfirmation(to string, summary email.OrderSummary) error
	SendStatusUpdate(to string, update email.StatusUpdate) error
}

var statusMessages = map[string]email.StatusUpdate{
	order.EventOrderShipped: {
		Headline: "Your order has shipped",
		Message:  "Your order is on its way. It can no longer be cancelled.",
	},
	order.EventOrderDelivered: {
		Headline: "Your order was delivered",
		Message:  "Your order has been delivered. You can now leave verified reviews for its products.",
	},
	order.EventOrderCancelled: {
		Headline: "Your order was cancelled",
		Message:  "Your order has been cancelled and will not be shipped.",
	},
}

// Handler processes order events for sending notifications
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{mailer: mailer, logger: logger}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var evt event.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		h.logger.Error("failed to unmarshal event", zap.ByteString("key", key), zap.Error(err))
		return err
	}
	return h.Handle(ctx, evt)
}

// Handle sends the email matching the event, if any. Events of other
// aggregates and statuses without a template are ignored.
func (h *Handler) Handle(_ context.Context, evt event.Event) error {
	if evt.AggregateType != order.AggregateType {
		return nil
	}

	if evt.EventType == order.EventOrderPlaced {
		return h.handleOrderPlaced(evt)
	}
	if update, ok := statusMessages[evt.EventType]; ok {
		return h.handleStatusChanged(evt, update)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(evt event.Event) error {
	var e order.OrderPlaced
	if err := evt.Decode(&e); err != nil {
		h.logger.Error("failed to decode OrderPlaced event", zap.String("event_id", evt.ID), zap.Error(err))
		return err
	}
	if e.CustomerEmail == "" {
		h.logger.Info("no email address on order, skipping confirmation", zap.String("order_id", e.OrderID))
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	summary := email.OrderSummary{
		Number:    e.Number,
		Items:     items,
		Subtotal:  e.Totals.Subtotal,
		Discount:  e.Totals.Discount,
		Tax:       e.Totals.Tax,
		Shipping:  e.Totals.Shipping,
		Total:     e.Totals.Total,
		PromoCode: e.PromoCode,
	}

	if err := h.mailer.SendOrderConfirmation(e.CustomerEmail, summary); err != nil {
		h.logger.Error("failed to send order confirmation",
			zap.String("order_id", e.OrderID),
			zap.Error(err),
		)
		return fmt.Errorf("sending confirmation for order %s: %w", e.OrderID, err)
	}

	h.logger.Info("order confirmation sent", zap.String("order_id", e.OrderID), zap.String("number", e.Number))
	return nil
}

func (h *Handler) handleStatusChanged(evt event.Event, update email.StatusUpdate) error {
	var e order.StatusChanged
	if err := evt.Decode(&e); err != nil {
		h.logger.Error("failed to decode status event", zap.String("event_id", evt.ID), zap.Error(err))
		return err
	}
	if e.CustomerEmail == "" {
		h.logger.Info("no email address on order, skipping status update", zap.String("order_id", e.OrderID))
		return nil
	}

	update.Number = e.Number
	if err := h.mailer.SendStatusUpdate(e.CustomerEmail, update); err != nil {
		h.logger.Error("failed to send status update",
			zap.String("order_id", e.OrderID),
			zap.String("status", string(e.To)),
			zap.Error(err),
		)
		return fmt.Errorf("sending %s update for order %s: %w", e.To, e.OrderID, err)
	}

	h.logger.Info("status update sent", zap.String("order_id", e.OrderID), zap.String("status", string(e.To)))
	return nil
}
