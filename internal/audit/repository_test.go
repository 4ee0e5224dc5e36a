package audit

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "audit-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			subject TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

func TestCreateAndList(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	entry := &AuditLog{
		Action:     ActionLogin,
		EntityType: "organization",
		EntityID:   "org-1234",
		Subject:    "acme",
		Source:     "api",
		Details:    map[string]any{"sub_type": "org"},
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected generated ID")
	}

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 1 || len(result.Logs) != 1 {
		t.Fatalf("total = %d, logs = %d, want 1/1", result.Total, len(result.Logs))
	}

	got := result.Logs[0]
	if got.Action != ActionLogin || got.Subject != "acme" {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["sub_type"] != "org" {
		t.Errorf("details not round-tripped: %v", got.Details)
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	entries := []*AuditLog{
		{Action: ActionLogin, EntityType: "organization", Subject: "acme", Source: "api"},
		{Action: ActionLogin, EntityType: "branch", Subject: "acme-north", Source: "api"},
		{Action: ActionCreate, EntityType: "shipment", EntityID: "shp-1", Subject: "acme-north", Source: "api"},
		{Action: ActionLogout, EntityType: "organization", Subject: "acme", Source: "api"},
	}
	for i, e := range entries {
		e.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	byAction, err := repo.List(context.Background(), Filter{Action: ActionLogin})
	if err != nil {
		t.Fatalf("List by action: %v", err)
	}
	if byAction.Total != 2 {
		t.Errorf("login entries = %d, want 2", byAction.Total)
	}

	bySubject, err := repo.List(context.Background(), Filter{Subject: "acme-north"})
	if err != nil {
		t.Fatalf("List by subject: %v", err)
	}
	if bySubject.Total != 2 {
		t.Errorf("acme-north entries = %d, want 2", bySubject.Total)
	}

	byEntity, err := repo.List(context.Background(), Filter{EntityType: "shipment", EntityID: "shp-1"})
	if err != nil {
		t.Fatalf("List by entity: %v", err)
	}
	if byEntity.Total != 1 {
		t.Errorf("shipment entries = %d, want 1", byEntity.Total)
	}
}

func TestListOrderAndPagination(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := &AuditLog{
			Action:     ActionRefresh,
			EntityType: "organization",
			Subject:    "acme",
			Source:     "api",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 5 || len(page.Logs) != 2 {
		t.Fatalf("total = %d, page = %d, want 5/2", page.Total, len(page.Logs))
	}
	if page.Logs[0].CreatedAt.Before(page.Logs[1].CreatedAt) {
		t.Error("logs not ordered newest first")
	}
}
