package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrEmptyOrder             = errors.New("order must have at least one item")
	ErrUnknownStatus          = errors.New("unknown order status")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrCancellationNotAllowed = errors.New("order can no longer be cancelled")
)

// validTransitions is the single source of truth for the lifecycle.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// AllowedNext returns a copy of the statuses reachable from s.
func AllowedNext(s Status) []Status {
	allowed := validTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

func (s Status) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%v: cannot transition from %s to %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// CancellationNotAllowedError carries the status the order was in when the
// cancellation was refused.
type CancellationNotAllowedError struct {
	Status Status
}

func (e *CancellationNotAllowedError) Error() string {
	return fmt.Sprintf("%v: order is %s", ErrCancellationNotAllowed, e.Status)
}

func (e *CancellationNotAllowedError) Unwrap() error { return ErrCancellationNotAllowed }

// Item is a price-at-purchase snapshot of one cart line.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Transition struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

type Order struct {
	ID            string         `json:"id"`
	Number        string         `json:"number"`
	CustomerID    string         `json:"customer_id"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	Items         []Item         `json:"items"`
	Totals        pricing.Totals `json:"totals"`
	PromoCode     string         `json:"promo_code,omitempty"`
	Status        Status         `json:"status"`
	History       []Transition   `json:"history"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Version       int            `json:"version"`
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Advance moves the order to next. Status, UpdatedAt and the history entry
// change together or not at all.
func (o *Order) Advance(next Status, at time.Time) error {
	if !o.CanTransitionTo(next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	o.History = append(o.History, Transition{From: o.Status, To: next, At: at})
	o.Status = next
	o.UpdatedAt = at
	return nil
}

// RequestCancellation cancels a pending or processing order.
func (o *Order) RequestCancellation(at time.Time) error {
	if !o.CanTransitionTo(StatusCancelled) {
		return &CancellationNotAllowedError{Status: o.Status}
	}
	return o.Advance(StatusCancelled, at)
}

func (o *Order) IsOwnedBy(customerID string) bool {
	return customerID != "" && o.CustomerID == customerID
}

func (o *Order) ContainsProduct(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share slices with callers.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	c.History = append([]Transition(nil), o.History...)
	return &c
}

// LineItems converts the snapshot back into pricing input.
func (o *Order) LineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = pricing.LineItem{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return items
}

// Store persists orders. Update is the per-order critical section: the
// mutate callback sees the current record and its changes are written
// atomically, or discarded if it returns an error.
type Store interface {
	Get(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, o *Order) error
	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	Update(ctx context.Context, id string, mutate func(o *Order) error) (*Order, error)
}
