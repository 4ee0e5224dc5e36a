package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// BlacklistRepository defines the interface for revoked token persistence.
// Tokens are keyed by jti; rows can be purged once the underlying token
// has expired, since expiry alone then rejects it.
type BlacklistRepository interface {
	// Revoke records a jti as revoked. Returns true if this call inserted
	// the entry, false if it was already present. The insert is atomic,
	// so concurrent revocations of the same jti see exactly one true.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// SQLiteBlacklistRepository implements BlacklistRepository using SQLite.
type SQLiteBlacklistRepository struct {
	db *sql.DB
}

// NewBlacklistRepository creates a new SQLite-backed blacklist repository.
func NewBlacklistRepository(db *sql.DB) *SQLiteBlacklistRepository {
	return &SQLiteBlacklistRepository{db: db}
}

// Revoke inserts the jti if absent. INSERT OR IGNORE against the primary
// key gives the single-winner semantics refresh rotation relies on.
func (r *SQLiteBlacklistRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blacklisted_tokens (jti, expires_at, revoked_at)
		 VALUES (?, ?, ?)`,
		jti,
		expiresAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("revoking token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows > 0, nil
}

// IsRevoked reports whether a jti has been blacklisted.
func (r *SQLiteBlacklistRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM blacklisted_tokens WHERE jti = ?", jti).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking blacklist: %w", err)
	}
	return true, nil
}

// PurgeExpired removes blacklist entries whose tokens have expired.
// Returns the number of deleted rows.
func (r *SQLiteBlacklistRepository) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM blacklisted_tokens WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("purging expired blacklist entries: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}
