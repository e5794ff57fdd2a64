package store

import (
	"context"

	"github.com/example/commerce-policy/internal/readmodel"
)

// SummaryStore holds the product review summaries maintained by the projector.
type SummaryStore interface {
	// GetSummary returns the summary for a product; found is false if no
	// review event has touched it yet.
	GetSummary(ctx context.Context, productID string) (*readmodel.ProductReviewSummary, bool, error)

	// UpdateSummary applies fn to the current summary, creating an empty one
	// first if needed, and stores the result atomically.
	UpdateSummary(ctx context.Context, productID string, fn func(s *readmodel.ProductReviewSummary)) (*readmodel.ProductReviewSummary, error)
}
