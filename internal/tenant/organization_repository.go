package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrganizationRepository defines the interface for organization persistence.
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Organization, error)
}

// SQLiteOrganizationRepository implements OrganizationRepository using SQLite.
type SQLiteOrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new SQLite-backed organization repository.
func NewOrganizationRepository(db *sql.DB) *SQLiteOrganizationRepository {
	return &SQLiteOrganizationRepository{db: db}
}

// Create inserts a new organization. The ID is generated if empty.
func (r *SQLiteOrganizationRepository) Create(ctx context.Context, org *Organization) error {
	if org.ID == "" {
		org.ID = "org-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Truncate(time.Second)
	org.CreatedAt = now
	org.UpdatedAt = now

	metadata, err := marshalMetadata(org.Metadata)
	if err != nil {
		return fmt.Errorf("encoding organization metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, slug, subdomain, title, password_hash, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		org.ID, org.Slug, org.Subdomain, org.Title, org.PasswordHash,
		metadata, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "subdomain") {
				return ErrSubdomainTaken
			}
			return ErrSlugTaken
		}
		return fmt.Errorf("creating organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by its unique ID.
func (r *SQLiteOrganizationRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	return r.getOrganization(ctx, "WHERE id = ?", id)
}

// GetBySlug retrieves an organization by its slug.
// Slugs are the subject identifiers carried in tokens.
func (r *SQLiteOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return r.getOrganization(ctx, "WHERE slug = ?", slug)
}

// GetBySubdomain retrieves an organization by its routing subdomain.
func (r *SQLiteOrganizationRepository) GetBySubdomain(ctx context.Context, subdomain string) (*Organization, error) {
	return r.getOrganization(ctx, "WHERE subdomain = ?", subdomain)
}

func (r *SQLiteOrganizationRepository) getOrganization(ctx context.Context, where string, args ...any) (*Organization, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, slug, subdomain, title, password_hash, metadata, created_at, updated_at FROM organizations "+where,
		args...)

	var org Organization
	var metadata sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&org.ID, &org.Slug, &org.Subdomain, &org.Title,
		&org.PasswordHash, &metadata, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("scanning organization: %w", err)
	}

	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &org.Metadata); err != nil {
			return nil, fmt.Errorf("decoding organization metadata: %w", err)
		}
	}

	org.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	org.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &org, nil
}

// Shared SQLite helpers for the tenant repositories.

func marshalMetadata(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
