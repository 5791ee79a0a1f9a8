package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GrantRepository defines the interface for grant persistence.
type GrantRepository interface {
	Create(ctx context.Context, grant *AccessGrant) error
	GetByID(ctx context.Context, id string) (*AccessGrant, error)
	UpdateTokenHash(ctx context.Context, id, tokenHash string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteGrantRepository implements GrantRepository using SQLite.
type SQLiteGrantRepository struct {
	db *sql.DB
}

// NewGrantRepository creates a new SQLite-backed grant repository.
func NewGrantRepository(db *sql.DB) *SQLiteGrantRepository {
	return &SQLiteGrantRepository{db: db}
}

// HashToken computes the SHA-256 hash of a raw token string for storage.
// Raw tokens are never stored — only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Create inserts a new grant. The ID is generated if empty.
func (r *SQLiteGrantRepository) Create(ctx context.Context, grant *AccessGrant) error {
	if grant.ID == "" {
		grant.ID = "ag-" + uuid.NewString()[:16]
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_grants (id, client_id, redirect_uri, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		grant.ID, grant.ClientID, grant.RedirectURI, grant.TokenHash,
		grant.ExpiresAt.UTC().Format(time.RFC3339),
		grant.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating grant: %w", err)
	}
	return nil
}

// GetByID retrieves a grant by its ID.
func (r *SQLiteGrantRepository) GetByID(ctx context.Context, id string) (*AccessGrant, error) {
	var g AccessGrant
	var expiresAt, createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, redirect_uri, token_hash, expires_at, created_at
		 FROM auth_grants WHERE id = ?`, id,
	).Scan(&g.ID, &g.ClientID, &g.RedirectURI, &g.TokenHash, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("getting grant: %w", err)
	}

	g.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // format is controlled
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &g, nil
}

// UpdateTokenHash binds a signed token to an existing grant. The hash is
// only known after signing, which needs the grant ID for its jti claim.
func (r *SQLiteGrantRepository) UpdateTokenHash(ctx context.Context, id, tokenHash string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE auth_grants SET token_hash = ? WHERE id = ?", tokenHash, id)
	if err != nil {
		return fmt.Errorf("updating grant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating grant: %w", err)
	}
	if n == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// Delete removes a grant, revoking its token.
func (r *SQLiteGrantRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM auth_grants WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting grant: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired grants and returns the count removed.
func (r *SQLiteGrantRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM auth_grants WHERE expires_at < ?",
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired grants: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted grants: %w", err)
	}
	return n, nil
}
