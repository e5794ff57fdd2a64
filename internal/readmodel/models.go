package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// appliedEventWindow bounds how many event ids a summary remembers.
const appliedEventWindow = 32

// ProductReviewSummary is the per-product rating aggregate shown next to
// review listings. It is rebuilt from review events by the projector.
type ProductReviewSummary struct {
	ProductID     string          `json:"product_id"`
	ReviewCount   int             `json:"review_count"`
	VerifiedCount int             `json:"verified_count"`
	RatingTotal   int             `json:"rating_total"`
	AverageRating decimal.Decimal `json:"average_rating"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// AppliedEventIDs holds the most recent events folded into the summary,
	// oldest first, so a redelivered event is not counted twice.
	AppliedEventIDs []string `json:"-"`
}

func NewProductReviewSummary(productID string) *ProductReviewSummary {
	return &ProductReviewSummary{ProductID: productID, AverageRating: decimal.Zero}
}

func (s *ProductReviewSummary) AddReview(rating int, verified bool, at time.Time) {
	s.ReviewCount++
	s.RatingTotal += rating
	if verified {
		s.VerifiedCount++
	}
	s.recompute(at)
}

func (s *ProductReviewSummary) RemoveReview(rating int, verified bool, at time.Time) {
	if s.ReviewCount == 0 {
		return
	}
	s.ReviewCount--
	s.RatingTotal -= rating
	if verified && s.VerifiedCount > 0 {
		s.VerifiedCount--
	}
	s.recompute(at)
}

func (s *ProductReviewSummary) ChangeRating(previous, current int, at time.Time) {
	if s.ReviewCount == 0 {
		return
	}
	s.RatingTotal += current - previous
	s.recompute(at)
}

func (s *ProductReviewSummary) recompute(at time.Time) {
	if s.ReviewCount <= 0 {
		s.ReviewCount, s.RatingTotal, s.VerifiedCount = 0, 0, 0
		s.AverageRating = decimal.Zero
	} else {
		s.AverageRating = decimal.NewFromInt(int64(s.RatingTotal)).
			Div(decimal.NewFromInt(int64(s.ReviewCount))).
			Round(2)
	}
	s.UpdatedAt = at
}

// HasApplied reports whether the event was already folded in.
func (s *ProductReviewSummary) HasApplied(eventID string) bool {
	if eventID == "" {
		return false
	}
	for _, id := range s.AppliedEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// MarkApplied records eventID, dropping the oldest id once the window is full.
func (s *ProductReviewSummary) MarkApplied(eventID string) {
	if eventID == "" {
		return
	}
	s.AppliedEventIDs = append(s.AppliedEventIDs, eventID)
	if n := len(s.AppliedEventIDs); n > appliedEventWindow {
		s.AppliedEventIDs = append([]string(nil), s.AppliedEventIDs[n-appliedEventWindow:]...)
	}
}

func (s *ProductReviewSummary) Clone() *ProductReviewSummary {
	c := *s
	if s.AppliedEventIDs != nil {
		c.AppliedEventIDs = append([]string(nil), s.AppliedEventIDs...)
	}
	return &c
}
