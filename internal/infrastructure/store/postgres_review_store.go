package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/review"
)

const reviewColumns = `id, product_id, author_id, rating, title, body, verified_purchase, created_at, updated_at`

type PostgresReviewStore struct {
	db *sql.DB
}

func NewPostgresReviewStore(db *sql.DB) *PostgresReviewStore {
	return &PostgresReviewStore{db: db}
}

func (s *PostgresReviewStore) Get(ctx context.Context, id string) (*review.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFoundError("review", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting review %s: %w", id, err)
	}
	return r, nil
}

// Save inserts a new review. Edits go through Update so a deleted row is
// never written back.
func (s *PostgresReviewStore) Save(ctx context.Context, r *review.Review) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.ProductID, r.AuthorID, r.Rating, r.Title, r.Body, r.VerifiedPurchase, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving review %s: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewConflictError("review", r.ID, 0)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of mutate.
func (s *PostgresReviewStore) Update(ctx context.Context, id string, mutate func(r *review.Review) error) (*review.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFoundError("review", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking review %s: %w", id, err)
	}

	if err := mutate(r); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE reviews SET rating = $2, title = $3, body = $4, updated_at = $5
		WHERE id = $1
	`, r.ID, r.Rating, r.Title, r.Body, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating review %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresReviewStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting review %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewNotFoundError("review", id)
	}
	return nil
}

func (s *PostgresReviewStore) ListByProduct(ctx context.Context, productID string) ([]*review.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %s: %w", productID, err)
	}
	defer rows.Close()

	reviews := make([]*review.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row rowScanner) (*review.Review, error) {
	var r review.Review
	err := row.Scan(&r.ID, &r.ProductID, &r.AuthorID, &r.Rating, &r.Title, &r.Body,
		&r.VerifiedPurchase, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
