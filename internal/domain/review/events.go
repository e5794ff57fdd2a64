package review

import "time"

const (
	EventReviewCreated = "ReviewCreated"
	EventReviewEdited  = "ReviewEdited"
	EventReviewDeleted = "ReviewDeleted"
)

type ReviewCreated struct {
	ReviewID         string    `json:"review_id"`
	ProductID        string    `json:"product_id"`
	AuthorID         string    `json:"author_id"`
	Rating           int       `json:"rating"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReviewEdited struct {
	ReviewID       string    `json:"review_id"`
	ProductID      string    `json:"product_id"`
	PreviousRating int       `json:"previous_rating"`
	Rating         int       `json:"rating"`
	EditedAt       time.Time `json:"edited_at"`
}

type ReviewDeleted struct {
	ReviewID         string    `json:"review_id"`
	ProductID        string    `json:"product_id"`
	Rating           int       `json:"rating"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	DeletedAt        time.Time `json:"deleted_at"`
}
