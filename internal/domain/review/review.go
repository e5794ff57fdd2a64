package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const AggregateType = "Review"

const (
	MinRating      = 1
	MaxRating      = 5
	MaxTitleLength = 200
	MaxBodyLength  = 5000
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrInvalidContent  = errors.New("invalid review content")
	ErrUnauthenticated = errors.New("an authenticated author is required")
)

// Review is a customer's review of a product. VerifiedPurchase is a snapshot
// taken when the review is created; it is never recomputed, not on edit and
// not when the author's orders change later.
type Review struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	AuthorID         string    `json:"author_id"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Edit carries the mutable fields; nil means unchanged.
type Edit struct {
	Rating *int    `json:"rating,omitempty"`
	Title  *string `json:"title,omitempty"`
	Body   *string `json:"body,omitempty"`
}

func (e Edit) IsEmpty() bool {
	return e.Rating == nil && e.Title == nil && e.Body == nil
}

// Store persists reviews. Update runs mutate on the current row while
// holding the review's lock and writes the result back only if mutate
// returns nil; a review deleted before the lock is taken yields NotFound.
type Store interface {
	Get(ctx context.Context, id string) (*Review, error)
	Save(ctx context.Context, r *Review) error
	Update(ctx context.Context, id string, mutate func(r *Review) error) (*Review, error)
	Delete(ctx context.Context, id string) error
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w, got %d", ErrInvalidRating, rating)
	}
	return nil
}

func validateContent(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidContent)
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidContent, MaxTitleLength)
	}
	if len(body) > MaxBodyLength {
		return fmt.Errorf("%w: body exceeds %d characters", ErrInvalidContent, MaxBodyLength)
	}
	return nil
}

// apply validates and applies an edit to r in place. It never touches
// VerifiedPurchase.
func (r *Review) apply(e Edit, at time.Time) error {
	rating, title, body := r.Rating, r.Title, r.Body
	if e.Rating != nil {
		rating = *e.Rating
	}
	if e.Title != nil {
		title = strings.TrimSpace(*e.Title)
	}
	if e.Body != nil {
		body = strings.TrimSpace(*e.Body)
	}
	if err := validateRating(rating); err != nil {
		return err
	}
	if err := validateContent(title, body); err != nil {
		return err
	}
	r.Rating, r.Title, r.Body = rating, title, body
	r.UpdatedAt = at
	return nil
}

func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
