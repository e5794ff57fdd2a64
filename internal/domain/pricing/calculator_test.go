package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator() *Calculator {
	return NewCalculator(DefaultPolicy())
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, field string) {
	t.Helper()
	assert.Equal(t, expected, actual.StringFixed(MinorUnits), field)
}

// ============================================
// Scenario Tests
// ============================================

func TestCalculator_Calculate_BelowFreeShipping(t *testing.T) {
	calc := newTestCalculator()

	totals, err := calc.Calculate([]LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: money("30")}})

	require.NoError(t, err)
	assertMoney(t, "30.00", totals.Subtotal, "subtotal")
	assertMoney(t, "0.00", totals.Discount, "discount")
	assertMoney(t, "2.40", totals.Tax, "tax")
	assertMoney(t, "9.99", totals.Shipping, "shipping")
	assertMoney(t, "42.39", totals.Total, "total")
}

func TestCalculator_Calculate_ExactlyAtThreshold(t *testing.T) {
	calc := newTestCalculator()

	totals, err := calc.Calculate([]LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: money("50")}})

	require.NoError(t, err)
	assertMoney(t, "50.00", totals.Subtotal, "subtotal")
	assertMoney(t, "4.00", totals.Tax, "tax")
	assertMoney(t, "0.00", totals.Shipping, "shipping")
	assertMoney(t, "54.00", totals.Total, "total")
}

func TestCalculator_Calculate_MultipleLines(t *testing.T) {
	calc := newTestCalculator()

	totals, err := calc.Calculate([]LineItem{
		{ProductID: "p-1", Quantity: 2, UnitPrice: money("12.50")},
		{ProductID: "p-2", Quantity: 3, UnitPrice: money("4.99")},
	})

	require.NoError(t, err)
	assertMoney(t, "39.97", totals.Subtotal, "subtotal")
	assertMoney(t, "3.20", totals.Tax, "tax") // 3.1976
	assertMoney(t, "9.99", totals.Shipping, "shipping")
	assertMoney(t, "53.16", totals.Total, "total")
}

// ============================================
// Property Tests
// ============================================

func TestCalculator_ShippingThreshold(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		subtotal string
		shipping string
	}{
		{"0.00", "9.99"},
		{"0.01", "9.99"},
		{"25.00", "9.99"},
		{"49.99", "9.99"},
		{"50.00", "0.00"},
		{"50.01", "0.00"},
		{"120.00", "0.00"},
		{"10000.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			totals := calc.Totals(money(tt.subtotal), decimal.Zero)
			assertMoney(t, tt.shipping, totals.Shipping, "shipping")
		})
	}
}

func TestCalculator_TaxRoundsHalfUp(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		subtotal string
		tax      string
	}{
		{"10.05", "0.80"}, // 0.804
		{"10.07", "0.81"}, // 0.8056
		{"0.06", "0.00"},  // 0.0048
		{"0.07", "0.01"},  // 0.0056
		{"99.99", "8.00"}, // 7.9992
		{"12.34", "0.99"}, // 0.9872
	}

	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			totals := calc.Totals(money(tt.subtotal), decimal.Zero)
			assertMoney(t, tt.tax, totals.Tax, "tax")
		})
	}
}

func TestCalculator_SubtotalRejectsSubCentPrices(t *testing.T) {
	calc := newTestCalculator()

	_, err := calc.Subtotal([]LineItem{
		{ProductID: "p-1", Quantity: 1, UnitPrice: money("1.00")},
		{ProductID: "p-2", Quantity: 4, UnitPrice: money("0.125")},
	})

	require.ErrorIs(t, err, ErrInvalidCart)
	var cartErr *InvalidCartError
	require.ErrorAs(t, err, &cartErr)
	assert.Equal(t, 1, cartErr.Index)
}

func TestCalculator_SubtotalAcceptsTrailingZeros(t *testing.T) {
	calc := newTestCalculator()

	subtotal, err := calc.Subtotal([]LineItem{{ProductID: "p-1", Quantity: 3, UnitPrice: money("0.1200")}})

	require.NoError(t, err)
	assertMoney(t, "0.36", subtotal, "subtotal")
}

func TestCalculator_Idempotent(t *testing.T) {
	calc := newTestCalculator()
	items := []LineItem{
		{ProductID: "p-1", Quantity: 3, UnitPrice: money("7.77")},
		{ProductID: "p-2", Quantity: 1, UnitPrice: money("19.99")},
	}

	first, err := calc.Calculate(items)
	require.NoError(t, err)
	second, err := calc.Calculate(items)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Shipping.Equal(second.Shipping))
	assert.True(t, first.Total.Equal(second.Total))
	// input is untouched
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCalculator_FreeProductsAreAllowed(t *testing.T) {
	calc := newTestCalculator()

	totals, err := calc.Calculate([]LineItem{{ProductID: "sample", Quantity: 1, UnitPrice: decimal.Zero}})

	require.NoError(t, err)
	assertMoney(t, "0.00", totals.Tax, "tax")
	assertMoney(t, "9.99", totals.Total, "total")
}

// ============================================
// Discount Tests
// ============================================

func TestCalculator_Totals_DiscountMovesBelowThreshold(t *testing.T) {
	calc := newTestCalculator()

	totals := calc.Totals(money("55.00"), money("10.00"))

	assertMoney(t, "55.00", totals.Subtotal, "subtotal")
	assertMoney(t, "10.00", totals.Discount, "discount")
	assertMoney(t, "3.60", totals.Tax, "tax")
	assertMoney(t, "9.99", totals.Shipping, "shipping")
	assertMoney(t, "58.59", totals.Total, "total")
}

func TestCalculator_Totals_DiscountClampedToSubtotal(t *testing.T) {
	calc := newTestCalculator()

	totals := calc.Totals(money("20.00"), money("25.00"))

	assertMoney(t, "20.00", totals.Discount, "discount")
	assertMoney(t, "0.00", totals.Tax, "tax")
	assertMoney(t, "9.99", totals.Total, "total")
}

// ============================================
// Validation Tests
// ============================================

func TestCalculator_InvalidCart(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name  string
		items []LineItem
		index int
	}{
		{"nil items", nil, -1},
		{"empty items", []LineItem{}, -1},
		{"zero quantity", []LineItem{{ProductID: "p-1", Quantity: 0, UnitPrice: money("1")}}, 0},
		{"negative quantity", []LineItem{
			{ProductID: "p-1", Quantity: 1, UnitPrice: money("1")},
			{ProductID: "p-2", Quantity: -2, UnitPrice: money("1")},
		}, 1},
		{"negative price", []LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: money("-0.01")}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.items)

			assert.ErrorIs(t, err, ErrInvalidCart)
			var cartErr *InvalidCartError
			require.ErrorAs(t, err, &cartErr)
			assert.Equal(t, tt.index, cartErr.Index)
		})
	}
}

func TestTotals_MarshalJSON(t *testing.T) {
	totals, err := newTestCalculator().Calculate([]LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: money("30")}})
	require.NoError(t, err)

	data, err := json.Marshal(totals)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal":"30.00","discount":"0.00","tax":"2.40","shipping":"9.99","total":"42.39"}`, string(data))

	var decoded Totals
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Tax.Equal(totals.Tax))
	assert.True(t, decoded.Total.Equal(totals.Total))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("0.10", "75", "4.50")
	require.NoError(t, err)
	assertMoney(t, "0.10", p.TaxRate, "tax rate")
	assertMoney(t, "75.00", p.FreeShippingThreshold, "threshold")

	_, err = ParsePolicy("ten", "75", "4.50")
	assert.ErrorContains(t, err, "tax rate")

	_, err = ParsePolicy("0.08", "-1", "4.50")
	assert.Error(t, err)
}
