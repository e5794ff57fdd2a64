package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/commerce-policy/internal/readmodel"
	"github.com/lib/pq"
)

// PostgresReadStore implements SummaryStore using PostgreSQL
type PostgresReadStore struct {
	db *sql.DB
}

func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

const summaryColumns = `product_id, review_count, verified_count, rating_total, average_rating, updated_at, applied_event_ids`

func (rs *PostgresReadStore) GetSummary(ctx context.Context, productID string) (*readmodel.ProductReviewSummary, bool, error) {
	row := rs.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM product_review_summaries WHERE product_id = $1`, productID)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting review summary %s: %w", productID, err)
	}
	return s, true, nil
}

func (rs *PostgresReadStore) UpdateSummary(ctx context.Context, productID string, fn func(s *readmodel.ProductReviewSummary)) (*readmodel.ProductReviewSummary, error) {
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// make sure a row exists so the lock below always has something to hold
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO product_review_summaries (product_id) VALUES ($1) ON CONFLICT (product_id) DO NOTHING`,
		productID,
	); err != nil {
		return nil, fmt.Errorf("creating review summary %s: %w", productID, err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM product_review_summaries WHERE product_id = $1 FOR UPDATE`, productID)
	s, err := scanSummary(row)
	if err != nil {
		return nil, fmt.Errorf("locking review summary %s: %w", productID, err)
	}

	fn(s)

	applied := s.AppliedEventIDs
	if applied == nil {
		applied = []string{}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE product_review_summaries SET
			review_count = $2, verified_count = $3, rating_total = $4,
			average_rating = $5, updated_at = $6, applied_event_ids = $7
		WHERE product_id = $1
	`, s.ProductID, s.ReviewCount, s.VerifiedCount, s.RatingTotal, s.AverageRating, s.UpdatedAt, pq.Array(applied))
	if err != nil {
		return nil, fmt.Errorf("updating review summary %s: %w", productID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review summary %s: %w", productID, err)
	}
	return s, nil
}

func scanSummary(row rowScanner) (*readmodel.ProductReviewSummary, error) {
	var s readmodel.ProductReviewSummary
	err := row.Scan(&s.ProductID, &s.ReviewCount, &s.VerifiedCount, &s.RatingTotal, &s.AverageRating, &s.UpdatedAt,
		pq.Array(&s.AppliedEventIDs))
	if err != nil {
		return nil, err
	}
	return &s, nil
}
