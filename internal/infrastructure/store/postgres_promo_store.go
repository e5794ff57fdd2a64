package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/commerce-policy/internal/domain/promo"
)

// PostgresPromoStore reads the promo catalog from the promo_codes table.
type PostgresPromoStore struct {
	db *sql.DB
}

func NewPostgresPromoStore(db *sql.DB) *PostgresPromoStore {
	return &PostgresPromoStore{db: db}
}

func (s *PostgresPromoStore) Lookup(ctx context.Context, code string) (*promo.Code, bool, error) {
	var c promo.Code
	var discountType string
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT code, discount_type, value, min_subtotal, expires_at, description
		FROM promo_codes WHERE code = $1
	`, promo.Normalize(code)).Scan(&c.Code, &discountType, &c.Value, &c.MinSubtotal, &expiresAt, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up promo code: %w", err)
	}
	c.Type = promo.DiscountType(discountType)
	if expiresAt.Valid {
		c.ExpiresAt = expiresAt.Time.UTC()
	}
	return &c, true, nil
}

// Put upserts a catalog entry.
func (s *PostgresPromoStore) Put(ctx context.Context, c *promo.Code) error {
	var expiresAt sql.NullTime
	if !c.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: c.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promo_codes (code, discount_type, value, min_subtotal, expires_at, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_subtotal = EXCLUDED.min_subtotal,
			expires_at = EXCLUDED.expires_at,
			description = EXCLUDED.description
	`, promo.Normalize(c.Code), string(c.Type), c.Value, c.MinSubtotal, expiresAt, c.Description)
	if err != nil {
		return fmt.Errorf("saving promo code %s: %w", c.Code, err)
	}
	return nil
}
