package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var (
	ErrCodeNotFound  = errors.New("promo code not found")
	ErrCodeExpired   = errors.New("promo code expired")
	ErrMinimumNotMet = errors.New("promo code minimum subtotal not met")
	ErrInvalidCode   = errors.New("invalid promo code definition")
)

// Code is an issued promo code. It is looked up, never mutated.
type Code struct {
	Code        string          `json:"code"`
	Type        DiscountType    `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Description string          `json:"description,omitempty"`
}

// Expired reports whether now is past the code's validity window. A zero
// ExpiresAt never expires.
func (c *Code) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Validate checks a code definition before it is put into a store.
func (c *Code) Validate() error {
	if Normalize(c.Code) == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidCode)
	}
	if c.MinSubtotal.IsNegative() {
		return fmt.Errorf("%w: %s: minimum subtotal must not be negative", ErrInvalidCode, c.Code)
	}
	switch c.Type {
	case DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: %s: percentage must be in (0, 100]", ErrInvalidCode, c.Code)
		}
	case DiscountFixed:
		if !c.Value.IsPositive() {
			return fmt.Errorf("%w: %s: fixed amount must be positive", ErrInvalidCode, c.Code)
		}
	default:
		return fmt.Errorf("%w: %s: unknown discount type %q", ErrInvalidCode, c.Code, c.Type)
	}
	return nil
}

// Normalize is the lookup key for a caller-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Store is the external promo catalog.
type Store interface {
	Lookup(ctx context.Context, code string) (*Code, bool, error)
}

type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("promo code %q not found", e.Code)
}

func (e *NotFoundError) Unwrap() error { return ErrCodeNotFound }

type ExpiredError struct {
	Code      string
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("promo code %q expired at %s", e.Code, e.ExpiredAt.Format(time.RFC3339))
}

func (e *ExpiredError) Unwrap() error { return ErrCodeExpired }

type MinimumNotMetError struct {
	Code     string
	Minimum  decimal.Decimal
	Subtotal decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("promo code %q requires a subtotal of at least %s, got %s",
		e.Code, e.Minimum.StringFixed(2), e.Subtotal.StringFixed(2))
}

func (e *MinimumNotMetError) Unwrap() error { return ErrMinimumNotMet }
