package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// passwordKey is the credentials row holding the stored password hash.
const passwordKey = "password"

// LoadPassword returns the stored password hash and whether one exists.
func (r *Repository) LoadPassword(ctx context.Context) (string, bool, error) {
	query := `SELECT value FROM credentials WHERE key = ?`

	var value string
	err := r.db.QueryRowContext(ctx, query, passwordKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading password: %w", err)
	}
	return value, true, nil
}

// SavePassword stores the password hash, replacing any previous one.
func (r *Repository) SavePassword(ctx context.Context, hash string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, passwordKey, hash); err != nil {
		return fmt.Errorf("saving password: %w", err)
	}
	return nil
}

// ClearPassword removes the stored password. Clearing an absent password is not an error.
func (r *Repository) ClearPassword(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, passwordKey); err != nil {
		return fmt.Errorf("clearing password: %w", err)
	}
	return nil
}
