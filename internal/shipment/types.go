package shipment

import (
	"crypto/rand"
	"errors"
	"time"
)

// Status is a shipment's position in its lifecycle.
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusInTransit Status = "IN_TRANSIT"
	StatusArrived   Status = "ARRIVED"
	StatusDelivered Status = "DELIVERED"
)

// IsValidStatus reports whether s is one of the known lifecycle states.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusBooked, StatusInTransit, StatusArrived, StatusDelivered:
		return true
	}
	return false
}

// PaymentMode records which party pays for the shipment.
type PaymentMode string

const (
	PaymentSenderPays   PaymentMode = "SENDER_PAYS"
	PaymentReceiverPays PaymentMode = "RECEIVER_PAYS"
)

// IsValidPaymentMode reports whether m is a known payment mode.
func IsValidPaymentMode(m PaymentMode) bool {
	return m == PaymentSenderPays || m == PaymentReceiverPays
}

// Shipment is a parcel moving between two branches of one organization.
// Price is in minor currency units (paise, cents).
type Shipment struct {
	ID                  string      `json:"id"`
	Slug                string      `json:"slug"`
	TrackingID          string      `json:"tracking_id"`
	OrganizationID      string      `json:"organization_id"`
	SourceBranchID      string      `json:"source_branch_id"`
	DestinationBranchID string      `json:"destination_branch_id"`
	SenderName          string      `json:"sender_name"`
	SenderPhone         string      `json:"sender_phone"`
	ReceiverName        string      `json:"receiver_name"`
	ReceiverPhone       string      `json:"receiver_phone"`
	Description         string      `json:"description,omitempty"`
	Price               int64       `json:"price"`
	PaymentMode         PaymentMode `json:"payment_mode"`
	CurrentStatus       Status      `json:"current_status"`
	History             []History   `json:"history,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// History is one entry in a shipment's status trail. Entries are
// append-only; the newest entry's status always equals CurrentStatus.
type History struct {
	ID         string    `json:"id"`
	ShipmentID string    `json:"-"`
	Status     Status    `json:"status"`
	Location   string    `json:"location"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// trackingAlphabet excludes lookalike characters (0/O, 1/I/L) so
// tracking IDs survive being read over the phone.
const trackingAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewTrackingID generates a public tracking identifier: "VYH-" plus ten
// characters from the restricted alphabet.
func NewTrackingID() string {
	b := make([]byte, 10)
	rand.Read(b) //nolint:errcheck // crypto/rand.Read never fails
	for i := range b {
		b[i] = trackingAlphabet[int(b[i])%len(trackingAlphabet)]
	}
	return "VYH-" + string(b)
}

// Sentinel errors for shipment operations.
var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrInvalidStatus     = errors.New("invalid shipment status")
	ErrInvalidPayment    = errors.New("invalid payment mode")
	ErrSameBranch        = errors.New("source and destination branches are identical")
	ErrBranchMismatch    = errors.New("branch does not belong to the organization")
	ErrMissingRecipients = errors.New("sender and receiver details are required")
)
