package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mnv-dev/vyahan-core/internal/audit"
	"github.com/mnv-dev/vyahan-core/internal/shipment"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// handleCreateShipment books a shipment from the authenticated branch
// to a sibling branch.
func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req struct {
		DestinationBranch string `json:"destination_branch"`
		SenderName        string `json:"sender_name"`
		SenderPhone       string `json:"sender_phone"`
		ReceiverName      string `json:"receiver_name"`
		ReceiverPhone     string `json:"receiver_phone"`
		Description       string `json:"description"`
		Price             int64  `json:"price"`
		PaymentMode       string `json:"payment_mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body")
		return
	}

	dest, err := s.branches.GetBySlug(r.Context(), req.DestinationBranch)
	if err != nil {
		if errors.Is(err, tenant.ErrBranchNotFound) {
			writeBadRequest(w, "destination branch not found")
			return
		}
		s.logger.Error("resolving destination branch", "error", err)
		writeInternalError(w)
		return
	}

	sh, err := s.shipments.Book(r.Context(), id.Organization.ID, shipment.BookingRequest{
		SourceBranchID:      id.Branch.ID,
		DestinationBranchID: dest.ID,
		SenderName:          req.SenderName,
		SenderPhone:         req.SenderPhone,
		ReceiverName:        req.ReceiverName,
		ReceiverPhone:       req.ReceiverPhone,
		Description:         req.Description,
		Price:               req.Price,
		PaymentMode:         shipment.PaymentMode(req.PaymentMode),
		Location:            id.Branch.Title,
	})
	if err != nil {
		s.bookingFailed(w, err)
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionCreate,
		EntityType: "shipment",
		EntityID:   sh.ID,
		Subject:    id.Branch.Slug,
		Source:     "api",
		Details:    map[string]any{"tracking_id": sh.TrackingID},
	})

	writeEnvelope(w, http.StatusCreated, "Shipment booked successfully", sh)
}

func (s *Server) bookingFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shipment.ErrMissingRecipients),
		errors.Is(err, shipment.ErrInvalidPayment),
		errors.Is(err, shipment.ErrSameBranch),
		errors.Is(err, shipment.ErrBranchMismatch):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Error("booking shipment", "error", err)
		writeInternalError(w)
	}
}

// handleUpdateShipmentStatus moves a shipment to a new status. The
// history entry is located at the acting branch.
func (s *Server) handleUpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	trackingID := chi.URLParam(r, "tracking_id")

	var req struct {
		Status  string `json:"status"`
		Remarks string `json:"remarks"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Malformed request body")
		return
	}

	status := shipment.Status(req.Status)
	if !shipment.IsValidStatus(status) {
		writeBadRequest(w, "invalid shipment status")
		return
	}

	sh, err := s.shipments.UpdateStatus(r.Context(), id.Organization.ID,
		trackingID, status, id.Branch.Title, req.Remarks)
	if err != nil {
		if errors.Is(err, shipment.ErrShipmentNotFound) {
			writeNotFound(w, "Shipment not found")
			return
		}
		s.logger.Error("updating shipment status", "tracking_id", trackingID, "error", err)
		writeInternalError(w)
		return
	}

	s.audit(audit.AuditLog{
		Action:     audit.ActionUpdate,
		EntityType: "shipment",
		EntityID:   sh.ID,
		Subject:    id.Branch.Slug,
		Source:     "api",
		Details:    map[string]any{"status": string(status)},
	})

	writeEnvelope(w, http.StatusOK, fmt.Sprintf("Status updated to %s", status), sh)
}

// handleListShipments lists shipments for the token subject: an
// organization sees everything, a branch only its own traffic.
func (s *Server) handleListShipments(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var (
		shipments []shipment.Shipment
		err       error
	)
	if id.Branch != nil {
		shipments, err = s.shipments.ListForBranch(r.Context(), id.Organization.ID, id.Branch.ID)
	} else {
		shipments, err = s.shipments.ListForOrganization(r.Context(), id.Organization.ID)
	}
	if err != nil {
		s.logger.Error("listing shipments", "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Shipments fetched successfully", map[string]any{
		"shipments": shipments,
		"count":     len(shipments),
	})
}

// handleGetShipment returns one shipment with history, scoped to the
// token's organization.
func (s *Server) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	trackingID := chi.URLParam(r, "tracking_id")

	sh, err := s.shipments.Get(r.Context(), id.Organization.ID, trackingID)
	if err != nil {
		if errors.Is(err, shipment.ErrShipmentNotFound) {
			writeNotFound(w, "Shipment not found")
			return
		}
		s.logger.Error("fetching shipment", "tracking_id", trackingID, "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Shipment fetched successfully", sh)
}

// trackingView is the public tracking shape: movement only, no parties'
// phone numbers, no price.
type trackingView struct {
	TrackingID    string             `json:"tracking_id"`
	CurrentStatus shipment.Status    `json:"current_status"`
	History       []shipment.History `json:"history"`
}

// handleTrackShipment is the public tracking endpoint. When the request
// arrives on a tenant subdomain the lookup is scoped to that tenant.
func (s *Server) handleTrackShipment(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "tracking_id")

	orgID := ""
	if tc := tenant.FromContext(r.Context()); tc.HasOrganization() {
		orgID = tc.Organization.ID
	}

	sh, err := s.shipments.Get(r.Context(), orgID, trackingID)
	if err != nil {
		if errors.Is(err, shipment.ErrShipmentNotFound) {
			writeNotFound(w, "Shipment not found")
			return
		}
		s.logger.Error("tracking shipment", "tracking_id", trackingID, "error", err)
		writeInternalError(w)
		return
	}

	writeEnvelope(w, http.StatusOK, "Tracking info fetched", trackingView{
		TrackingID:    sh.TrackingID,
		CurrentStatus: sh.CurrentStatus,
		History:       sh.History,
	})
}
