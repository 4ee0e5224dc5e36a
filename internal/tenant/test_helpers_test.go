package tenant

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the tenant schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "tenant-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE organizations (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			subdomain TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE branches (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying tenant schema: %v", err)
	}

	return db
}

// seedOrganization inserts a test organization and returns it.
func seedOrganization(t *testing.T, db *sql.DB, slug, subdomain string) *Organization {
	t.Helper()

	repo := NewOrganizationRepository(db)
	org := &Organization{
		Slug:         slug,
		Subdomain:    subdomain,
		Title:        "Test " + slug,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=1$dGVzdA$dGVzdA",
	}
	if err := repo.Create(context.Background(), org); err != nil {
		t.Fatalf("creating test organization %s: %v", slug, err)
	}
	return org
}

// seedBranch inserts a test branch owned by the given organization.
func seedBranch(t *testing.T, db *sql.DB, orgID, slug string) *Branch {
	t.Helper()

	repo := NewBranchRepository(db)
	branch := &Branch{
		OrganizationID: orgID,
		Slug:           slug,
		Title:          "Test " + slug,
		PasswordHash:   "$argon2id$v=19$m=65536,t=3,p=1$dGVzdA$dGVzdA",
	}
	if err := repo.Create(context.Background(), branch); err != nil {
		t.Fatalf("creating test branch %s: %v", slug, err)
	}
	return branch
}
