package pricing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places money is rounded to.
const MinorUnits = 2

var ErrInvalidCart = errors.New("invalid cart")

// InvalidCartError describes why a cart was rejected. Index is the offending
// line, or -1 when the cart as a whole is at fault.
type InvalidCartError struct {
	Index  int
	Reason string
}

func (e *InvalidCartError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid cart: %s", e.Reason)
	}
	return fmt.Sprintf("invalid cart: item %d: %s", e.Index, e.Reason)
}

func (e *InvalidCartError) Unwrap() error {
	return ErrInvalidCart
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// MarshalJSON writes every amount with exactly MinorUnits decimal places,
// so a tax of 2.4 is sent as "2.40". The default decimal unmarshalling
// reads the strings back.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal string `json:"subtotal"`
		Discount string `json:"discount"`
		Tax      string `json:"tax"`
		Shipping string `json:"shipping"`
		Total    string `json:"total"`
	}{
		Subtotal: t.Subtotal.StringFixed(MinorUnits),
		Discount: t.Discount.StringFixed(MinorUnits),
		Tax:      t.Tax.StringFixed(MinorUnits),
		Shipping: t.Shipping.StringFixed(MinorUnits),
		Total:    t.Total.StringFixed(MinorUnits),
	})
}

// Policy holds the flat-rate figures the calculator applies.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		FlatShipping:          decimal.RequireFromString("9.99"),
	}
}

// ParsePolicy builds a policy from decimal strings, as read from config.
func ParsePolicy(taxRate, threshold, flatShipping string) (Policy, error) {
	var p Policy
	var err error
	if p.TaxRate, err = decimal.NewFromString(taxRate); err != nil {
		return Policy{}, fmt.Errorf("parsing tax rate: %w", err)
	}
	if p.FreeShippingThreshold, err = decimal.NewFromString(threshold); err != nil {
		return Policy{}, fmt.Errorf("parsing free shipping threshold: %w", err)
	}
	if p.FlatShipping, err = decimal.NewFromString(flatShipping); err != nil {
		return Policy{}, fmt.Errorf("parsing flat shipping: %w", err)
	}
	if p.TaxRate.IsNegative() || p.FreeShippingThreshold.IsNegative() || p.FlatShipping.IsNegative() {
		return Policy{}, errors.New("pricing policy values must not be negative")
	}
	return p, nil
}

// Calculator is stateless; the same input always yields the same Totals.
type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

// Round rounds half-up to the currency's minor unit. Amounts here are never
// negative, so shopspring's half-away-from-zero is the same thing.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// Subtotal validates the cart and returns the sum of its lines. Unit prices
// must already be whole cents, so the sum is exact.
func (c *Calculator) Subtotal(items []LineItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, &InvalidCartError{Index: -1, Reason: "cart has no items"}
	}

	sum := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return decimal.Zero, &InvalidCartError{Index: i, Reason: fmt.Sprintf("quantity must be positive, got %d", item.Quantity)}
		}
		if item.UnitPrice.IsNegative() {
			return decimal.Zero, &InvalidCartError{Index: i, Reason: fmt.Sprintf("unit price must not be negative, got %s", item.UnitPrice)}
		}
		if !item.UnitPrice.Equal(Round(item.UnitPrice)) {
			return decimal.Zero, &InvalidCartError{Index: i, Reason: fmt.Sprintf("unit price has more than %d decimal places, got %s", MinorUnits, item.UnitPrice)}
		}
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum, nil
}

// Totals prices an already validated subtotal. Tax and the free-shipping
// threshold are evaluated against the subtotal after the discount.
func (c *Calculator) Totals(subtotal, discount decimal.Decimal) Totals {
	subtotal = Round(subtotal)
	discount = Round(decimal.Min(decimal.Max(discount, decimal.Zero), subtotal))
	taxable := subtotal.Sub(discount)

	tax := Round(taxable.Mul(c.policy.TaxRate))

	shipping := c.policy.FlatShipping
	if taxable.GreaterThanOrEqual(c.policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	shipping = Round(shipping)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    taxable.Add(tax).Add(shipping),
	}
}

// Calculate prices a cart with no discount.
func (c *Calculator) Calculate(items []LineItem) (Totals, error) {
	subtotal, err := c.Subtotal(items)
	if err != nil {
		return Totals{}, err
	}
	return c.Totals(subtotal, decimal.Zero), nil
}
