package shipment

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// testDB creates a temporary SQLite database with the shipment-relevant
// schema applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "shipment-test-*.db")
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

		CREATE TABLE shipments (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			tracking_id TEXT NOT NULL UNIQUE,
			organization_id TEXT NOT NULL,
			source_branch_id TEXT NOT NULL,
			destination_branch_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			sender_phone TEXT NOT NULL,
			receiver_name TEXT NOT NULL,
			receiver_phone TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			payment_mode TEXT NOT NULL,
			current_status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE,
			FOREIGN KEY (source_branch_id) REFERENCES branches(id) ON DELETE CASCADE,
			FOREIGN KEY (destination_branch_id) REFERENCES branches(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE shipment_history (
			id TEXT PRIMARY KEY,
			shipment_id TEXT NOT NULL,
			status TEXT NOT NULL,
			location TEXT NOT NULL,
			remarks TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

// testTenant seeds an organization with two branches and returns them.
func testTenant(t *testing.T, db *sql.DB, orgSlug string) (*tenant.Organization, *tenant.Branch, *tenant.Branch) {
	t.Helper()

	org := &tenant.Organization{
		Slug:         orgSlug,
		Subdomain:    orgSlug,
		Title:        "Test " + orgSlug,
		PasswordHash: "x",
	}
	if err := tenant.NewOrganizationRepository(db).Create(context.Background(), org); err != nil {
		t.Fatalf("creating organization: %v", err)
	}

	branches := tenant.NewBranchRepository(db)
	src := &tenant.Branch{OrganizationID: org.ID, Slug: orgSlug + "-src", Title: "Source", PasswordHash: "x"}
	dst := &tenant.Branch{OrganizationID: org.ID, Slug: orgSlug + "-dst", Title: "Destination", PasswordHash: "x"}
	for _, b := range []*tenant.Branch{src, dst} {
		if err := branches.Create(context.Background(), b); err != nil {
			t.Fatalf("creating branch %s: %v", b.Slug, err)
		}
	}
	return org, src, dst
}

// testBooking returns a valid booking request between the two branches.
func testBooking(src, dst *tenant.Branch) BookingRequest {
	return BookingRequest{
		SourceBranchID:      src.ID,
		DestinationBranchID: dst.ID,
		SenderName:          "Ram Thapa",
		SenderPhone:         "+9779810000001",
		ReceiverName:        "Sita Rai",
		ReceiverPhone:       "+9779810000002",
		Description:         "documents",
		Price:               45000,
		PaymentMode:         PaymentSenderPays,
		Location:            "Kathmandu",
	}
}

// recordingNotifier captures sent messages for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	phone   string
	message string
}

func (n *recordingNotifier) Send(_ context.Context, phone, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{phone: phone, message: message})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}
