package shipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for shipment persistence.
// Writes that touch both the shipment row and its history trail are
// transactional so the newest history entry never disagrees with
// current_status.
type Repository interface {
	Create(ctx context.Context, sh *Shipment, location string) error
	UpdateStatus(ctx context.Context, orgID, trackingID string, status Status, location, remarks string) (*Shipment, error)
	GetByTracking(ctx context.Context, orgID, trackingID string) (*Shipment, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Shipment, error)
	ListByBranch(ctx context.Context, orgID, branchID string) ([]Shipment, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed shipment repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const shipmentColumns = `id, slug, tracking_id, organization_id, source_branch_id,
	destination_branch_id, sender_name, sender_phone, receiver_name, receiver_phone,
	description, price, payment_mode, current_status, created_at, updated_at`

// Create inserts a shipment in status BOOKED together with its first
// history entry, in one transaction. ID, slug and tracking ID are
// generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, sh *Shipment, location string) error {
	if sh.ID == "" {
		sh.ID = "shp-" + uuid.NewString()[:8]
	}
	if sh.TrackingID == "" {
		sh.TrackingID = NewTrackingID()
	}
	if sh.Slug == "" {
		sh.Slug = strings.ToLower(sh.TrackingID)
	}
	sh.CurrentStatus = StatusBooked

	now := time.Now().UTC().Truncate(time.Second)
	sh.CreatedAt = now
	sh.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO shipments (`+shipmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.Slug, sh.TrackingID, sh.OrganizationID,
		sh.SourceBranchID, sh.DestinationBranchID,
		sh.SenderName, sh.SenderPhone, sh.ReceiverName, sh.ReceiverPhone,
		sh.Description, sh.Price, string(sh.PaymentMode), string(sh.CurrentStatus),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating shipment: %w", err)
	}

	entry := History{
		ID:         "hst-" + uuid.NewString()[:8],
		ShipmentID: sh.ID,
		Status:     StatusBooked,
		Location:   location,
		CreatedAt:  now,
	}
	if err := insertHistory(ctx, tx, &entry); err != nil {
		return err
	}
	sh.History = []History{entry}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing shipment create: %w", err)
	}
	return nil
}

// UpdateStatus moves a shipment to a new status and appends the
// matching history entry, in one transaction. The shipment is scoped to
// the owning organization; a tracking ID under another organization is
// reported as not found.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, orgID, trackingID string, status Status, location, remarks string) (*Shipment, error) {
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning status transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	now := time.Now().UTC().Truncate(time.Second)

	result, err := tx.ExecContext(ctx,
		`UPDATE shipments SET current_status = ?, updated_at = ?
		 WHERE tracking_id = ? AND organization_id = ?`,
		string(status), now.Format(time.RFC3339), trackingID, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating shipment status: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return nil, ErrShipmentNotFound
	}

	var shipmentID string
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM shipments WHERE tracking_id = ?", trackingID,
	).Scan(&shipmentID); err != nil {
		return nil, fmt.Errorf("resolving shipment id: %w", err)
	}

	entry := History{
		ID:         "hst-" + uuid.NewString()[:8],
		ShipmentID: shipmentID,
		Status:     status,
		Location:   location,
		Remarks:    remarks,
		CreatedAt:  now,
	}
	if err := insertHistory(ctx, tx, &entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	return r.GetByTracking(ctx, orgID, trackingID)
}

// GetByTracking retrieves a shipment with its full history. An empty
// orgID skips tenant scoping; public tracking uses that form.
func (r *SQLiteRepository) GetByTracking(ctx context.Context, orgID, trackingID string) (*Shipment, error) {
	where := "WHERE tracking_id = ?"
	args := []any{trackingID}
	if orgID != "" {
		where += " AND organization_id = ?"
		args = append(args, orgID)
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+shipmentColumns+" FROM shipments "+where, args...)

	sh, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShipmentNotFound
		}
		return nil, err
	}

	history, err := r.loadHistory(ctx, sh.ID)
	if err != nil {
		return nil, err
	}
	sh.History = history

	return sh, nil
}

// ListByOrganization returns an organization's shipments, newest first,
// without history trails.
func (r *SQLiteRepository) ListByOrganization(ctx context.Context, orgID string) ([]Shipment, error) {
	return r.listShipments(ctx,
		"WHERE organization_id = ? ORDER BY created_at DESC", orgID)
}

// ListByBranch returns shipments where the branch is either endpoint,
// newest first, without history trails.
func (r *SQLiteRepository) ListByBranch(ctx context.Context, orgID, branchID string) ([]Shipment, error) {
	return r.listShipments(ctx,
		`WHERE organization_id = ? AND (source_branch_id = ? OR destination_branch_id = ?)
		 ORDER BY created_at DESC`, orgID, branchID, branchID)
}

func (r *SQLiteRepository) listShipments(ctx context.Context, where string, args ...any) ([]Shipment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+shipmentColumns+" FROM shipments "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("listing shipments: %w", err)
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, *sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shipments: %w", err)
	}

	if shipments == nil {
		shipments = []Shipment{}
	}
	return shipments, nil
}

func (r *SQLiteRepository) loadHistory(ctx context.Context, shipmentID string) ([]History, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shipment_id, status, location, remarks, created_at
		 FROM shipment_history WHERE shipment_id = ?
		 ORDER BY created_at ASC, id ASC`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("loading shipment history: %w", err)
	}
	defer rows.Close()

	var history []History
	for rows.Next() {
		var h History
		var status, createdAt string
		if err := rows.Scan(&h.ID, &h.ShipmentID, &status, &h.Location, &h.Remarks, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		h.Status = Status(status)
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	if history == nil {
		history = []History{}
	}
	return history, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, h *History) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO shipment_history (id, shipment_id, status, location, remarks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.ShipmentID, string(h.Status), h.Location, h.Remarks,
		h.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending history entry: %w", err)
	}
	return nil
}

// scanner is an interface over sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanShipment(s scanner) (*Shipment, error) {
	var sh Shipment
	var paymentMode, status, createdAt, updatedAt string

	err := s.Scan(&sh.ID, &sh.Slug, &sh.TrackingID, &sh.OrganizationID,
		&sh.SourceBranchID, &sh.DestinationBranchID,
		&sh.SenderName, &sh.SenderPhone, &sh.ReceiverName, &sh.ReceiverPhone,
		&sh.Description, &sh.Price, &paymentMode, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning shipment: %w", err)
	}

	sh.PaymentMode = PaymentMode(paymentMode)
	sh.CurrentStatus = Status(status)
	sh.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	sh.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &sh, nil
}
