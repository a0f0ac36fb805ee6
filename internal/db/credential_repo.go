package db

import (
	"context"
	"database/sql"
	"fmt"
)

type CredentialRepo struct {
	db *sql.DB
}

func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Put stores the credential, replacing any prior one for the account.
func (r *CredentialRepo) Put(ctx context.Context, cred *Credential) error {
	if cred.AccountKey == "" {
		return fmt.Errorf("account key cannot be empty")
	}
	now := nowUTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO credentials (account_key, cookie, mall_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(account_key) DO UPDATE SET
	cookie = excluded.cookie,
	mall_id = excluded.mall_id,
	updated_at = excluded.updated_at
`, cred.AccountKey, cred.Cookie, cred.MallID, formatTimestamp(cred.CreatedAt), formatTimestamp(cred.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to store credential for %q: %w", cred.AccountKey, err)
	}
	return nil
}

func (r *CredentialRepo) Get(ctx context.Context, accountKey string) (*Credential, error) {
	var c Credential
	var createdAtRaw, updatedAtRaw string

	err := r.db.QueryRowContext(ctx, `
SELECT account_key, cookie, mall_id, created_at, updated_at
FROM credentials
WHERE account_key = ?
`, accountKey).Scan(&c.AccountKey, &c.Cookie, &c.MallID, &createdAtRaw, &updatedAtRaw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential %q: %w", accountKey, err)
	}

	if c.CreatedAt, err = parseTimestamp(createdAtRaw); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAtRaw); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepo) Delete(ctx context.Context, accountKey string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE account_key = ?`, accountKey)
	if err != nil {
		return fmt.Errorf("failed to delete credential %q: %w", accountKey, err)
	}
	return nil
}
