package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type StatusRepo struct {
	db *sql.DB
}

func NewStatusRepo(db *sql.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

func (r *StatusRepo) Set(ctx context.Context, accountKey string, productID int64, status int) error {
	if accountKey == "" {
		return fmt.Errorf("account key cannot be empty")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO processed_status (account_key, product_id, status, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(account_key, product_id) DO UPDATE SET
	status = excluded.status,
	updated_at = excluded.updated_at
`, accountKey, productID, status, formatTimestamp(nowUTC()))
	if err != nil {
		return fmt.Errorf("failed to set status for product %d: %w", productID, err)
	}
	return nil
}

// Get returns the stored status, or 0 when the product has none.
func (r *StatusRepo) Get(ctx context.Context, accountKey string, productID int64) (int, error) {
	var status int
	err := r.db.QueryRowContext(ctx, `
SELECT status FROM processed_status WHERE account_key = ? AND product_id = ?
`, accountKey, productID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get status for product %d: %w", productID, err)
	}
	return status, nil
}

// GetMany returns statuses for the given products. Products without a row
// are absent from the result.
func (r *StatusRepo) GetMany(ctx context.Context, accountKey string, productIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(productIDs))
	args := make([]any, 0, len(productIDs)+1)
	args = append(args, accountKey)
	for i, id := range productIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT product_id, status FROM processed_status
WHERE account_key = ? AND product_id IN (`+strings.Join(placeholders, ", ")+`)
`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var status int
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		result[id] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating statuses: %w", err)
	}
	return result, nil
}
