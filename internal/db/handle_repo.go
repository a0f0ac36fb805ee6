package db

import (
	"context"
	"database/sql"
	"fmt"
)

// HandleRepo persists the per-account conversation handle. Freshness is
// the engine's business; this repo only stores and returns rows.
type HandleRepo struct {
	db *sql.DB
}

func NewHandleRepo(db *sql.DB) *HandleRepo {
	return &HandleRepo{db: db}
}

func (r *HandleRepo) Get(ctx context.Context, accountKey string) (*HandleRecord, error) {
	var rec HandleRecord
	err := r.db.QueryRowContext(ctx, `
SELECT account_key, parent_msg_id, tool_id, acquired_at_ms
FROM delist_handles
WHERE account_key = ?
`, accountKey).Scan(&rec.AccountKey, &rec.ParentMsgID, &rec.ToolID, &rec.AcquiredAtMS)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get handle for %q: %w", accountKey, err)
	}
	return &rec, nil
}

// Put overwrites any prior handle for the account unconditionally.
func (r *HandleRepo) Put(ctx context.Context, rec *HandleRecord) error {
	if rec.AccountKey == "" {
		return fmt.Errorf("account key cannot be empty")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO delist_handles (account_key, parent_msg_id, tool_id, acquired_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(account_key) DO UPDATE SET
	parent_msg_id = excluded.parent_msg_id,
	tool_id = excluded.tool_id,
	acquired_at_ms = excluded.acquired_at_ms
`, rec.AccountKey, rec.ParentMsgID, rec.ToolID, rec.AcquiredAtMS)
	if err != nil {
		return fmt.Errorf("failed to store handle for %q: %w", rec.AccountKey, err)
	}
	return nil
}
