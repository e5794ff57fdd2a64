package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sent *[]sentMail, err error) *Service {
	s := NewService("mail.local", "1025", "shop@example.com")
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
	return s
}

func sampleSummary() OrderSummary {
	return OrderSummary{
		Number: "ORD-20261015-ABCDEF12",
		Items: []OrderItem{
			{ProductID: "7", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: "<script>", Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
		Subtotal:  decimal.RequireFromString("30.00"),
		Discount:  decimal.RequireFromString("3.00"),
		Tax:       decimal.RequireFromString("2.16"),
		Shipping:  decimal.RequireFromString("9.99"),
		Total:     decimal.RequireFromString("39.15"),
		PromoCode: "SAVE10",
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body, err := BuildOrderConfirmationBody(sampleSummary())
	require.NoError(t, err)

	assert.Contains(t, body, "ORD-20261015-ABCDEF12")
	assert.Contains(t, body, "$20.00")
	assert.Contains(t, body, "Discount (SAVE10)")
	assert.Contains(t, body, "$39.15")
	assert.NotContains(t, body, "<script>")
}

func TestBuildOrderConfirmationBody_FreeShippingNoDiscount(t *testing.T) {
	summary := sampleSummary()
	summary.Discount = decimal.Zero
	summary.Shipping = decimal.Zero

	body, err := BuildOrderConfirmationBody(summary)
	require.NoError(t, err)
	assert.Contains(t, body, "Free")
	assert.NotContains(t, body, "Discount")
}

func TestService_SendOrderConfirmation(t *testing.T) {
	var sent []sentMail
	s := newTestService(&sent, nil)

	require.NoError(t, s.SendOrderConfirmation("a@example.com", sampleSummary()))

	require.Len(t, sent, 1)
	assert.Equal(t, "mail.local:1025", sent[0].addr)
	assert.Equal(t, "shop@example.com", sent[0].from)
	assert.Equal(t, []string{"a@example.com"}, sent[0].to)
	assert.True(t, strings.Contains(sent[0].msg, "Subject: Order confirmation ORD-20261015-ABCDEF12\r\n"))
}

func TestService_SendStatusUpdate(t *testing.T) {
	var sent []sentMail
	s := newTestService(&sent, errors.New("connection refused"))

	err := s.SendStatusUpdate("a@example.com", StatusUpdate{
		Number:   "ORD-1",
		Headline: "Your order has shipped",
		Message:  "It is on its way.",
	})
	assert.Error(t, err)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].msg, "Subject: Your order has shipped: order ORD-1")
	assert.Contains(t, sent[0].msg, "It is on its way.")
}
