package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BranchRepository defines the interface for branch persistence.
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	GetByID(ctx context.Context, id string) (*Branch, error)
	GetBySlug(ctx context.Context, slug string) (*Branch, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Branch, error)
	ListSiblings(ctx context.Context, orgID, excludeBranchID string) ([]Branch, error)
	Delete(ctx context.Context, orgID, slug string) error
}

// SQLiteBranchRepository implements BranchRepository using SQLite.
type SQLiteBranchRepository struct {
	db *sql.DB
}

// NewBranchRepository creates a new SQLite-backed branch repository.
func NewBranchRepository(db *sql.DB) *SQLiteBranchRepository {
	return &SQLiteBranchRepository{db: db}
}

// Create inserts a new branch. The ID is generated if empty.
func (r *SQLiteBranchRepository) Create(ctx context.Context, branch *Branch) error {
	if branch.ID == "" {
		branch.ID = "brn-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Truncate(time.Second)
	branch.CreatedAt = now
	branch.UpdatedAt = now

	metadata, err := marshalMetadata(branch.Metadata)
	if err != nil {
		return fmt.Errorf("encoding branch metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO branches (id, organization_id, slug, title, password_hash, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		branch.ID, branch.OrganizationID, branch.Slug, branch.Title,
		branch.PasswordHash, metadata,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("creating branch: %w", err)
	}

	return nil
}

// GetByID retrieves a branch by its unique ID.
func (r *SQLiteBranchRepository) GetByID(ctx context.Context, id string) (*Branch, error) {
	return r.getBranch(ctx, "WHERE id = ?", id)
}

// GetBySlug retrieves a branch by its slug.
// Slugs are the subject identifiers carried in branch tokens.
func (r *SQLiteBranchRepository) GetBySlug(ctx context.Context, slug string) (*Branch, error) {
	return r.getBranch(ctx, "WHERE slug = ?", slug)
}

// ListByOrganization returns all branches owned by an organization,
// oldest first.
func (r *SQLiteBranchRepository) ListByOrganization(ctx context.Context, orgID string) ([]Branch, error) {
	return r.listBranches(ctx,
		"WHERE organization_id = ? ORDER BY created_at ASC", orgID)
}

// ListSiblings returns an organization's branches excluding the given one.
// Used by branches selecting a transfer destination.
func (r *SQLiteBranchRepository) ListSiblings(ctx context.Context, orgID, excludeBranchID string) ([]Branch, error) {
	return r.listBranches(ctx,
		"WHERE organization_id = ? AND id != ? ORDER BY created_at ASC", orgID, excludeBranchID)
}

// Delete removes a branch by slug, scoped to the owning organization.
// A branch can only be deleted by its own organization; a matching slug
// under a different organization is reported as not found.
func (r *SQLiteBranchRepository) Delete(ctx context.Context, orgID, slug string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM branches WHERE organization_id = ? AND slug = ?", orgID, slug)
	if err != nil {
		return fmt.Errorf("deleting branch: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrBranchNotFound
	}
	return nil
}

func (r *SQLiteBranchRepository) getBranch(ctx context.Context, where string, args ...any) (*Branch, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, organization_id, slug, title, password_hash, metadata, created_at, updated_at FROM branches "+where,
		args...)

	b, err := scanBranch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *SQLiteBranchRepository) listBranches(ctx context.Context, where string, args ...any) ([]Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, organization_id, slug, title, password_hash, metadata, created_at, updated_at FROM branches "+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating branches: %w", err)
	}

	if branches == nil {
		branches = []Branch{}
	}
	return branches, nil
}

// scanner is an interface over sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanBranch(s scanner) (*Branch, error) {
	var b Branch
	var metadata sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&b.ID, &b.OrganizationID, &b.Slug, &b.Title,
		&b.PasswordHash, &metadata, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning branch: %w", err)
	}

	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &b.Metadata); err != nil {
			return nil, fmt.Errorf("decoding branch metadata: %w", err)
		}
	}

	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &b, nil
}
