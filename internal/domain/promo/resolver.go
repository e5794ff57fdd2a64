package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Application is the outcome of applying a code to a pre-discount subtotal.
type Application struct {
	Code     *Code           `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Adjusted decimal.Decimal `json:"adjusted_subtotal"`
}

type Resolver struct {
	store Store
	now   func() time.Time
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Apply looks the code up and computes the discounted subtotal. Percentage
// codes scale the subtotal, fixed codes subtract from it; the result never
// goes below zero.
func (r *Resolver) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*Application, error) {
	key := Normalize(code)
	if key == "" {
		return nil, &NotFoundError{Code: code}
	}

	pc, found, err := r.store.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("looking up promo code: %w", err)
	}
	if !found {
		return nil, &NotFoundError{Code: key}
	}

	if pc.Expired(r.now()) {
		return nil, &ExpiredError{Code: pc.Code, ExpiredAt: pc.ExpiresAt}
	}
	if subtotal.LessThan(pc.MinSubtotal) {
		return nil, &MinimumNotMetError{Code: pc.Code, Minimum: pc.MinSubtotal, Subtotal: subtotal}
	}

	var adjusted decimal.Decimal
	switch pc.Type {
	case DiscountPercentage:
		adjusted = subtotal.Mul(hundred.Sub(pc.Value)).Div(hundred).Round(2)
	case DiscountFixed:
		adjusted = subtotal.Sub(pc.Value)
	default:
		return nil, fmt.Errorf("%w: %s: unknown discount type %q", ErrInvalidCode, pc.Code, pc.Type)
	}
	if adjusted.IsNegative() {
		adjusted = decimal.Zero
	}

	return &Application{
		Code:     pc,
		Discount: subtotal.Sub(adjusted),
		Adjusted: adjusted,
	}, nil
}
