package shipment

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCreateShipment(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	org, src, dst := testTenant(t, db, "acme")

	sh := &Shipment{
		OrganizationID:      org.ID,
		SourceBranchID:      src.ID,
		DestinationBranchID: dst.ID,
		SenderName:          "Ram Thapa",
		SenderPhone:         "+9779810000001",
		ReceiverName:        "Sita Rai",
		ReceiverPhone:       "+9779810000002",
		Price:               45000,
		PaymentMode:         PaymentSenderPays,
	}
	if err := repo.Create(context.Background(), sh, "Kathmandu"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(sh.TrackingID, "VYH-") {
		t.Errorf("tracking ID = %q, want VYH- prefix", sh.TrackingID)
	}
	if sh.CurrentStatus != StatusBooked {
		t.Errorf("status = %q, want BOOKED", sh.CurrentStatus)
	}
	if len(sh.History) != 1 || sh.History[0].Status != StatusBooked {
		t.Fatalf("history = %v, want single BOOKED entry", sh.History)
	}
	if sh.History[0].Location != "Kathmandu" {
		t.Errorf("history location = %q", sh.History[0].Location)
	}
}

func TestGetByTrackingScoping(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	org, src, dst := testTenant(t, db, "acme")
	other, _, _ := testTenant(t, db, "rival")

	sh := &Shipment{
		OrganizationID:      org.ID,
		SourceBranchID:      src.ID,
		DestinationBranchID: dst.ID,
		SenderName:          "A", SenderPhone: "1",
		ReceiverName: "B", ReceiverPhone: "2",
		PaymentMode: PaymentReceiverPays,
	}
	if err := repo.Create(context.Background(), sh, "Pokhara"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Owner sees it.
	got, err := repo.GetByTracking(context.Background(), org.ID, sh.TrackingID)
	if err != nil {
		t.Fatalf("GetByTracking: %v", err)
	}
	if got.ID != sh.ID {
		t.Errorf("got ID %s, want %s", got.ID, sh.ID)
	}

	// Another tenant does not.
	if _, err := repo.GetByTracking(context.Background(), other.ID, sh.TrackingID); !errors.Is(err, ErrShipmentNotFound) {
		t.Errorf("cross-tenant get error = %v, want ErrShipmentNotFound", err)
	}

	// Public tracking bypasses scoping.
	pub, err := repo.GetByTracking(context.Background(), "", sh.TrackingID)
	if err != nil {
		t.Fatalf("public GetByTracking: %v", err)
	}
	if pub.ID != sh.ID {
		t.Errorf("public got ID %s, want %s", pub.ID, sh.ID)
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	org, src, dst := testTenant(t, db, "acme")

	sh := &Shipment{
		OrganizationID:      org.ID,
		SourceBranchID:      src.ID,
		DestinationBranchID: dst.ID,
		SenderName:          "A", SenderPhone: "1",
		ReceiverName: "B", ReceiverPhone: "2",
		PaymentMode: PaymentSenderPays,
	}
	if err := repo.Create(context.Background(), sh, "Kathmandu"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.UpdateStatus(context.Background(), org.ID, sh.TrackingID,
		StatusInTransit, "Mugling", "loaded on truck 12")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if updated.CurrentStatus != StatusInTransit {
		t.Errorf("status = %q, want IN_TRANSIT", updated.CurrentStatus)
	}
	if len(updated.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(updated.History))
	}
	last := updated.History[len(updated.History)-1]
	if last.Status != StatusInTransit || last.Location != "Mugling" || last.Remarks != "loaded on truck 12" {
		t.Errorf("last history entry = %+v", last)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	org, src, dst := testTenant(t, db, "acme")
	other, _, _ := testTenant(t, db, "rival")

	sh := &Shipment{
		OrganizationID:      org.ID,
		SourceBranchID:      src.ID,
		DestinationBranchID: dst.ID,
		SenderName:          "A", SenderPhone: "1",
		ReceiverName: "B", ReceiverPhone: "2",
		PaymentMode: PaymentSenderPays,
	}
	if err := repo.Create(context.Background(), sh, "Kathmandu"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.UpdateStatus(context.Background(), org.ID, sh.TrackingID, "TELEPORTED", "x", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("invalid status error = %v, want ErrInvalidStatus", err)
	}

	if _, err := repo.UpdateStatus(context.Background(), other.ID, sh.TrackingID, StatusArrived, "x", ""); !errors.Is(err, ErrShipmentNotFound) {
		t.Errorf("cross-tenant update error = %v, want ErrShipmentNotFound", err)
	}

	if _, err := repo.UpdateStatus(context.Background(), org.ID, "VYH-NOPE", StatusArrived, "x", ""); !errors.Is(err, ErrShipmentNotFound) {
		t.Errorf("unknown tracking error = %v, want ErrShipmentNotFound", err)
	}
}

func TestListByBranchEitherEndpoint(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	org, src, dst := testTenant(t, db, "acme")

	outbound := &Shipment{
		OrganizationID: org.ID, SourceBranchID: src.ID, DestinationBranchID: dst.ID,
		SenderName: "A", SenderPhone: "1", ReceiverName: "B", ReceiverPhone: "2",
		PaymentMode: PaymentSenderPays,
	}
	inbound := &Shipment{
		OrganizationID: org.ID, SourceBranchID: dst.ID, DestinationBranchID: src.ID,
		SenderName: "C", SenderPhone: "3", ReceiverName: "D", ReceiverPhone: "4",
		PaymentMode: PaymentReceiverPays,
	}
	for _, sh := range []*Shipment{outbound, inbound} {
		if err := repo.Create(context.Background(), sh, "origin"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	forSrc, err := repo.ListByBranch(context.Background(), org.ID, src.ID)
	if err != nil {
		t.Fatalf("ListByBranch: %v", err)
	}
	if len(forSrc) != 2 {
		t.Errorf("branch sees %d shipments, want 2 (source and destination)", len(forSrc))
	}

	all, err := repo.ListByOrganization(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("ListByOrganization: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("organization sees %d shipments, want 2", len(all))
	}
}

func TestNewTrackingIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewTrackingID()
		if !strings.HasPrefix(id, "VYH-") || len(id) != 14 {
			t.Fatalf("tracking ID %q has wrong shape", id)
		}
		for _, c := range id[4:] {
			if !strings.ContainsRune(trackingAlphabet, c) {
				t.Fatalf("tracking ID %q contains %q outside alphabet", id, c)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate tracking ID %q", id)
		}
		seen[id] = true
	}
}
