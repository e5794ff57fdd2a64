package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/infrastructure/store"
	"github.com/example/commerce-policy/internal/readmodel"
	"go.uber.org/zap"
)

// Projector folds review events into per-product review summaries.
// Events of other aggregates are ignored.
type Projector struct {
	readStore store.SummaryStore
	logger    *zap.Logger
}

func NewProjector(readStore store.SummaryStore, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{readStore: readStore, logger: logger}
}

// HandleEvent is the Kafka message handler.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var evt event.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}
	return p.Apply(ctx, evt)
}

// Publish lets the projector sit behind an event.Publisher when the API
// runs without a broker.
func (p *Projector) Publish(ctx context.Context, _ string, e any) error {
	switch evt := e.(type) {
	case event.Event:
		return p.Apply(ctx, evt)
	case *event.Event:
		return p.Apply(ctx, *evt)
	default:
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return p.HandleEvent(ctx, nil, data)
	}
}

func (p *Projector) Apply(ctx context.Context, evt event.Event) error {
	if evt.AggregateType != review.AggregateType {
		return nil
	}

	p.logger.Debug("projecting event",
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.EventType),
		zap.String("aggregate_id", evt.AggregateID),
	)

	switch evt.EventType {
	case review.EventReviewCreated:
		var e review.ReviewCreated
		if err := evt.Decode(&e); err != nil {
			return err
		}
		return p.update(ctx, evt.ID, e.ProductID, func(s *readmodel.ProductReviewSummary) {
			s.AddReview(e.Rating, e.VerifiedPurchase, e.CreatedAt)
		})

	case review.EventReviewEdited:
		var e review.ReviewEdited
		if err := evt.Decode(&e); err != nil {
			return err
		}
		if e.PreviousRating == e.Rating {
			return nil
		}
		return p.update(ctx, evt.ID, e.ProductID, func(s *readmodel.ProductReviewSummary) {
			s.ChangeRating(e.PreviousRating, e.Rating, e.EditedAt)
		})

	case review.EventReviewDeleted:
		var e review.ReviewDeleted
		if err := evt.Decode(&e); err != nil {
			return err
		}
		return p.update(ctx, evt.ID, e.ProductID, func(s *readmodel.ProductReviewSummary) {
			s.RemoveReview(e.Rating, e.VerifiedPurchase, e.DeletedAt)
		})
	}

	return nil
}

// update folds one event into the product's summary. An event id the
// summary has already applied is skipped, since the Kafka consumer commits
// only after the handler returns and may redeliver.
func (p *Projector) update(ctx context.Context, eventID, productID string, fn func(s *readmodel.ProductReviewSummary)) error {
	duplicate := false
	s, err := p.readStore.UpdateSummary(ctx, productID, func(s *readmodel.ProductReviewSummary) {
		if s.HasApplied(eventID) {
			duplicate = true
			return
		}
		fn(s)
		s.MarkApplied(eventID)
	})
	if err != nil {
		return fmt.Errorf("updating review summary for %s: %w", productID, err)
	}
	if duplicate {
		p.logger.Info("duplicate review event skipped",
			zap.String("event_id", eventID),
			zap.String("product_id", productID),
		)
		return nil
	}
	p.logger.Info("review summary updated",
		zap.String("product_id", productID),
		zap.Int("review_count", s.ReviewCount),
		zap.String("average_rating", s.AverageRating.StringFixed(2)),
	)
	return nil
}
