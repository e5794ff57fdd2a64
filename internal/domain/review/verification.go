package review

import (
	"context"
	"fmt"

	"github.com/example/commerce-policy/internal/domain/order"
)

// OrderHistory is the read-only view of a customer's orders.
type OrderHistory interface {
	ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error)
}

type Verifier struct {
	orders OrderHistory
}

func NewVerifier(orders OrderHistory) *Verifier {
	return &Verifier{orders: orders}
}

// IsVerifiedPurchase reports whether the customer has a delivered order that
// contains the product. Orders in any other status, cancelled included, do
// not count.
func (v *Verifier) IsVerifiedPurchase(ctx context.Context, customerID, productID string) (bool, error) {
	if customerID == "" || productID == "" {
		return false, nil
	}

	orders, err := v.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("listing orders for customer %s: %w", customerID, err)
	}

	for _, o := range orders {
		if o.Status == order.StatusDelivered && o.ContainsProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}
