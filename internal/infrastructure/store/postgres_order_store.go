package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
)

const orderColumns = `id, number, customer_id, customer_email, items, totals, promo_code, status, history, created_at, updated_at, version`

// PostgresOrderStore implements order.Store. Update takes a row lock so
// concurrent transitions on one order run one after another.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFoundError("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}
	return o, nil
}

// Save inserts a new order (Version 0) or overwrites an existing one whose
// stored version still matches.
func (s *PostgresOrderStore) Save(ctx context.Context, o *order.Order) error {
	items, totals, history, err := encodeOrder(o)
	if err != nil {
		return err
	}

	if o.Version == 0 {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		`, o.ID, o.Number, o.CustomerID, o.CustomerEmail, items, totals, o.PromoCode,
			string(o.Status), history, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting order %s: %w", o.ID, err)
		}
		o.Version = 1
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			customer_email = $2, items = $3, totals = $4, promo_code = $5,
			status = $6, history = $7, updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $9
	`, o.ID, o.CustomerEmail, items, totals, o.PromoCode, string(o.Status), history, o.UpdatedAt, o.Version)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewConflictError("order", o.ID, o.Version)
	}
	o.Version++
	return nil
}

func (s *PostgresOrderStore) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %s: %w", customerID, err)
	}
	defer rows.Close()

	orders := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresOrderStore) Update(ctx context.Context, id string, mutate func(o *order.Order) error) (*order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFoundError("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking order %s: %w", id, err)
	}

	if err := mutate(o); err != nil {
		return nil, err
	}

	items, totals, history, err := encodeOrder(o)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET
			customer_email = $2, items = $3, totals = $4, promo_code = $5,
			status = $6, history = $7, updated_at = $8, version = version + 1
		WHERE id = $1
	`, o.ID, o.CustomerEmail, items, totals, o.PromoCode, string(o.Status), history, o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating order %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order %s: %w", id, err)
	}
	o.Version++
	return o, nil
}

func encodeOrder(o *order.Order) (items, totals, history []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding order items: %w", err)
	}
	if totals, err = json.Marshal(o.Totals); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding order totals: %w", err)
	}
	h := o.History
	if h == nil {
		h = []order.Transition{}
	}
	if history, err = json.Marshal(h); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding order history: %w", err)
	}
	return items, totals, history, nil
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var status string
	var items, totals, history []byte
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerEmail, &items, &totals,
		&o.PromoCode, &status, &history, &o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return nil, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if err := json.Unmarshal(totals, &o.Totals); err != nil {
		return nil, fmt.Errorf("decoding totals: %w", err)
	}
	if err := json.Unmarshal(history, &o.History); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return &o, nil
}
