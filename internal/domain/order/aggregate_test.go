package order

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func newTestOrder(status Status) *Order {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return &Order{
		ID:         "order-1",
		CustomerID: "customer-1",
		Items: []Item{
			{ProductID: "prod-7", Quantity: 1, UnitPrice: decimal.RequireFromString("30.00")},
		},
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// ============================================
// Transition Table Tests
// ============================================

func TestOrder_CanTransitionTo_Table(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusProcessing: true, StatusCancelled: true},
		StatusProcessing: {StatusShipped: true, StatusCancelled: true},
		StatusShipped:    {StatusDelivered: true},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				o := newTestOrder(from)
				assert.Equal(t, allowed[from][to], o.CanTransitionTo(to))
			})
		}
	}
}

func TestOrder_CanTransitionTo_UnknownStatus(t *testing.T) {
	o := newTestOrder(Status("paid"))
	assert.False(t, o.CanTransitionTo(StatusShipped))
	assert.False(t, o.CanTransitionTo(StatusCancelled))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
	assert.False(t, Status("unknown").IsTerminal())
}

func TestAllowedNext_ReturnsCopy(t *testing.T) {
	next := AllowedNext(StatusPending)
	require.Equal(t, []Status{StatusProcessing, StatusCancelled}, next)

	next[0] = StatusDelivered
	assert.Equal(t, []Status{StatusProcessing, StatusCancelled}, AllowedNext(StatusPending))
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("paid")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

// ============================================
// Advance Tests
// ============================================

func TestOrder_Advance_FullLifecycle(t *testing.T) {
	o := newTestOrder(StatusPending)
	base := o.CreatedAt

	for i, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		at := base.Add(time.Duration(i+1) * time.Hour)
		require.NoError(t, o.Advance(next, at))
		assert.Equal(t, next, o.Status)
		assert.Equal(t, at, o.UpdatedAt)
	}

	require.Len(t, o.History, 3)
	assert.Equal(t, Transition{From: StatusPending, To: StatusProcessing, At: base.Add(time.Hour)}, o.History[0])
	assert.Equal(t, Transition{From: StatusShipped, To: StatusDelivered, At: base.Add(3 * time.Hour)}, o.History[2])
}

func TestOrder_Advance_Rejections(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
	}{
		{"self transition pending", StatusPending, StatusPending},
		{"self transition shipped", StatusShipped, StatusShipped},
		{"skip processing", StatusPending, StatusShipped},
		{"skip to delivered", StatusPending, StatusDelivered},
		{"backwards", StatusShipped, StatusProcessing},
		{"cancel shipped", StatusShipped, StatusCancelled},
		{"out of delivered", StatusDelivered, StatusCancelled},
		{"out of cancelled", StatusCancelled, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(tt.from)
			before := o.UpdatedAt

			err := o.Advance(tt.to, before.Add(time.Hour))

			assert.ErrorIs(t, err, ErrInvalidTransition)
			var te *InvalidTransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.from, te.From)
			assert.Equal(t, tt.to, te.To)

			// nothing committed
			assert.Equal(t, tt.from, o.Status)
			assert.Equal(t, before, o.UpdatedAt)
			assert.Empty(t, o.History)
		})
	}
}

// ============================================
// Cancellation Tests
// ============================================

func TestOrder_RequestCancellation_Allowed(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusProcessing} {
		t.Run(string(from), func(t *testing.T) {
			o := newTestOrder(from)
			at := o.CreatedAt.Add(time.Minute)

			require.NoError(t, o.RequestCancellation(at))

			assert.Equal(t, StatusCancelled, o.Status)
			assert.Equal(t, at, o.UpdatedAt)
			require.Len(t, o.History, 1)
			assert.Equal(t, Transition{From: from, To: StatusCancelled, At: at}, o.History[0])
		})
	}
}

func TestOrder_RequestCancellation_NotAllowed(t *testing.T) {
	for _, from := range []Status{StatusShipped, StatusDelivered, StatusCancelled} {
		t.Run(string(from), func(t *testing.T) {
			o := newTestOrder(from)

			err := o.RequestCancellation(o.CreatedAt.Add(time.Minute))

			assert.ErrorIs(t, err, ErrCancellationNotAllowed)
			assert.NotErrorIs(t, err, ErrInvalidTransition)
			var ce *CancellationNotAllowedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, from, ce.Status)
			assert.Equal(t, from, o.Status)
			assert.Empty(t, o.History)
		})
	}
}

func TestOrder_RequestCancellation_Twice(t *testing.T) {
	o := newTestOrder(StatusPending)

	require.NoError(t, o.RequestCancellation(o.CreatedAt.Add(time.Minute)))
	err := o.RequestCancellation(o.CreatedAt.Add(2 * time.Minute))

	var ce *CancellationNotAllowedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StatusCancelled, ce.Status)
	assert.Len(t, o.History, 1)
}

// ============================================
// Helper Tests
// ============================================

func TestOrder_ContainsProduct(t *testing.T) {
	o := newTestOrder(StatusDelivered)
	assert.True(t, o.ContainsProduct("prod-7"))
	assert.False(t, o.ContainsProduct("prod-8"))
}

func TestOrder_IsOwnedBy(t *testing.T) {
	o := newTestOrder(StatusPending)
	assert.True(t, o.IsOwnedBy("customer-1"))
	assert.False(t, o.IsOwnedBy("customer-2"))
	assert.False(t, o.IsOwnedBy(""))
}

func TestOrder_Clone_IsDeep(t *testing.T) {
	o := newTestOrder(StatusPending)
	c := o.Clone()

	c.Items[0].Quantity = 99
	require.NoError(t, c.Advance(StatusProcessing, time.Now()))

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, StatusPending, o.Status)
	assert.Empty(t, o.History)
}

func TestEventTypeFor(t *testing.T) {
	assert.Equal(t, EventOrderProcessing, EventTypeFor(StatusProcessing))
	assert.Equal(t, EventOrderShipped, EventTypeFor(StatusShipped))
	assert.Equal(t, EventOrderDelivered, EventTypeFor(StatusDelivered))
	assert.Equal(t, EventOrderCancelled, EventTypeFor(StatusCancelled))
	assert.Equal(t, EventOrderPlaced, EventTypeFor(StatusPending))
}

func TestOrderNumber(t *testing.T) {
	at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20261015-1B4E28BA", orderNumber("1b4e28ba-2fa1-11d2-883f-0016d3cca427", at))
}
