package order

import (
	"time"

	"github.com/example/commerce-policy/internal/domain/pricing"
)

const (
	EventOrderPlaced     = "OrderPlaced"
	EventOrderProcessing = "OrderProcessing"
	EventOrderShipped    = "OrderShipped"
	EventOrderDelivered  = "OrderDelivered"
	EventOrderCancelled  = "OrderCancelled"
)

// EventTypeFor maps a target status to the event announcing it.
func EventTypeFor(s Status) string {
	switch s {
	case StatusProcessing:
		return EventOrderProcessing
	case StatusShipped:
		return EventOrderShipped
	case StatusDelivered:
		return EventOrderDelivered
	case StatusCancelled:
		return EventOrderCancelled
	default:
		return EventOrderPlaced
	}
}

type OrderPlaced struct {
	OrderID       string         `json:"order_id"`
	Number        string         `json:"number"`
	CustomerID    string         `json:"customer_id"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	Items         []Item         `json:"items"`
	Totals        pricing.Totals `json:"totals"`
	PromoCode     string         `json:"promo_code,omitempty"`
	PlacedAt      time.Time      `json:"placed_at"`
}

type StatusChanged struct {
	OrderID       string    `json:"order_id"`
	Number        string    `json:"number"`
	CustomerID    string    `json:"customer_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
}
