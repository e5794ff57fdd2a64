package review

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store     Store
	verifier  *Verifier
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, verifier *Verifier, publisher event.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = event.NopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		verifier:  verifier,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new review. Any authenticated customer may review any
// product; the verified flag only changes how the review is displayed.
func (s *Service) Create(ctx context.Context, productID, authorID string, rating int, title, body string) (*Review, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return nil, apperr.NewValidationError("product id is required",
			apperr.ValidationDetail{Field: "product_id", Message: "required"})
	}
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if err := validateContent(title, body); err != nil {
		return nil, err
	}

	// Snapshot: computed once here and stored with the review.
	verified, err := s.verifier.IsVerifiedPurchase(ctx, authorID, productID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &Review{
		ID:               uuid.New().String(),
		ProductID:        productID,
		AuthorID:         authorID,
		Rating:           rating,
		Title:            title,
		Body:             body,
		VerifiedPurchase: verified,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}

	s.logger.Info("review created",
		zap.String("review_id", r.ID),
		zap.String("product_id", productID),
		zap.String("author_id", authorID),
		zap.Bool("verified_purchase", verified),
	)
	s.publish(ctx, r, EventReviewCreated, ReviewCreated{
		ReviewID:         r.ID,
		ProductID:        r.ProductID,
		AuthorID:         r.AuthorID,
		Rating:           r.Rating,
		VerifiedPurchase: r.VerifiedPurchase,
		CreatedAt:        r.CreatedAt,
	})
	return r, nil
}

func (s *Service) Get(ctx context.Context, reviewID string) (*Review, error) {
	return s.store.Get(ctx, reviewID)
}

// ListByProduct returns a product's reviews, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]*Review, error) {
	reviews, err := s.store.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// Edit updates rating, title and body in place for the review's author.
func (s *Service) Edit(ctx context.Context, reviewID, requesterID string, fields Edit) (*Review, error) {
	var previousRating int
	r, err := s.store.Update(ctx, reviewID, func(r *Review) error {
		if !CanEdit(r, requesterID) {
			s.logger.Info("review edit forbidden", zap.String("review_id", reviewID), zap.String("requester_id", requesterID))
			return apperr.NewForbiddenError("review", reviewID, requesterID)
		}
		if fields.IsEmpty() {
			return apperr.NewValidationError("no fields to update")
		}
		previousRating = r.Rating
		return r.apply(fields, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review edited", zap.String("review_id", r.ID))
	s.publish(ctx, r, EventReviewEdited, ReviewEdited{
		ReviewID:       r.ID,
		ProductID:      r.ProductID,
		PreviousRating: previousRating,
		Rating:         r.Rating,
		EditedAt:       r.UpdatedAt,
	})
	return r, nil
}

// Delete removes the review for its author.
func (s *Service) Delete(ctx context.Context, reviewID, requesterID string) error {
	r, err := s.store.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if !CanDelete(r, requesterID) {
		s.logger.Info("review delete forbidden", zap.String("review_id", reviewID), zap.String("requester_id", requesterID))
		return apperr.NewForbiddenError("review", reviewID, requesterID)
	}
	if err := s.store.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}

	s.logger.Info("review deleted", zap.String("review_id", reviewID))
	s.publish(ctx, r, EventReviewDeleted, ReviewDeleted{
		ReviewID:         r.ID,
		ProductID:        r.ProductID,
		Rating:           r.Rating,
		VerifiedPurchase: r.VerifiedPurchase,
		DeletedAt:        s.now(),
	})
	return nil
}

func (s *Service) publish(ctx context.Context, r *Review, eventType string, payload any) {
	evt, err := event.New(r.ID, AggregateType, eventType, 0, payload)
	if err != nil {
		s.logger.Error("failed to build review event", zap.String("review_id", r.ID), zap.Error(err))
		return
	}
	// keyed by product so a product's review events stay ordered for the projector
	if err := s.publisher.Publish(ctx, r.ProductID, evt); err != nil {
		s.logger.Warn("failed to publish review event",
			zap.String("review_id", r.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
