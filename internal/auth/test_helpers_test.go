package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// testDB creates a temporary SQLite database with the auth-relevant
// schema applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
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

		CREATE TABLE blacklisted_tokens (
			jti TEXT PRIMARY KEY,
			expires_at TEXT NOT NULL,
			revoked_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

const (
	testSecret   = "test-secret-key-for-auth-tests-0123456789"
	testPassword = "correct horse battery staple"
)

// testService wires a Service over a fresh test database and returns it
// along with its repositories.
func testService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db := testDB(t)
	svc := NewService(
		tenant.NewOrganizationRepository(db),
		tenant.NewBranchRepository(db),
		NewBlacklistRepository(db),
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	return svc, db
}

// seedOrg creates an organization with the shared test password.
func seedOrg(t *testing.T, db *sql.DB, slug string) *tenant.Organization {
	t.Helper()

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	org := &tenant.Organization{
		Slug:         slug,
		Subdomain:    slug,
		Title:        "Test " + slug,
		PasswordHash: hash,
	}
	if err := tenant.NewOrganizationRepository(db).Create(context.Background(), org); err != nil {
		t.Fatalf("creating organization: %v", err)
	}
	return org
}

// seedBranch creates a branch with the shared test password.
func seedBranch(t *testing.T, db *sql.DB, orgID, slug string) *tenant.Branch {
	t.Helper()

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	branch := &tenant.Branch{
		OrganizationID: orgID,
		Slug:           slug,
		Title:          "Test " + slug,
		PasswordHash:   hash,
	}
	if err := tenant.NewBranchRepository(db).Create(context.Background(), branch); err != nil {
		t.Fatalf("creating branch: %v", err)
	}
	return branch
}
