package command

import (
	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/example/commerce-policy/internal/domain/review"
)

// Checkout Commands
type ComputeTotals struct {
	Items     []pricing.LineItem `json:"items"`
	PromoCode string             `json:"promo_code,omitempty"`
}

// Order Commands
type PlaceOrder struct {
	CustomerID    string             `json:"-"`
	CustomerEmail string             `json:"-"`
	Items         []pricing.LineItem `json:"items"`
	PromoCode     string             `json:"promo_code,omitempty"`
}

type CancelOrder struct {
	OrderID     string `json:"order_id"`
	RequesterID string `json:"-"`
}

type AdvanceOrder struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Review Commands
type CreateReview struct {
	ProductID string `json:"product_id"`
	AuthorID  string `json:"-"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

type EditReview struct {
	ReviewID    string `json:"review_id"`
	RequesterID string `json:"-"`
	review.Edit
}

type DeleteReview struct {
	ReviewID    string `json:"review_id"`
	RequesterID string `json:"-"`
}
