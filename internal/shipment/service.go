package shipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/mnv-dev/vyahan-core/internal/infrastructure/logging"
	"github.com/mnv-dev/vyahan-core/internal/notify"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// BookingRequest carries the fields needed to book a shipment.
type BookingRequest struct {
	SourceBranchID      string
	DestinationBranchID string
	SenderName          string
	SenderPhone         string
	ReceiverName        string
	ReceiverPhone       string
	Description         string
	Price               int64
	PaymentMode         PaymentMode
	Location            string
}

// Service coordinates shipment booking and status changes, validating
// tenant boundaries and firing SMS notifications. Notifications are
// best-effort: failures are logged and never fail the operation.
type Service struct {
	repo     Repository
	branches tenant.BranchRepository
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewService creates the shipment service.
func NewService(repo Repository, branches tenant.BranchRepository, notifier notify.Notifier, logger *logging.Logger) *Service {
	return &Service{
		repo:     repo,
		branches: branches,
		notifier: notifier,
		logger:   logger,
	}
}

// Book validates and creates a shipment in status BOOKED, then notifies
// the sender.
func (s *Service) Book(ctx context.Context, orgID string, req BookingRequest) (*Shipment, error) {
	if req.SenderName == "" || req.SenderPhone == "" || req.ReceiverName == "" || req.ReceiverPhone == "" {
		return nil, ErrMissingRecipients
	}
	if !IsValidPaymentMode(req.PaymentMode) {
		return nil, ErrInvalidPayment
	}
	if req.SourceBranchID == req.DestinationBranchID {
		return nil, ErrSameBranch
	}

	for _, branchID := range []string{req.SourceBranchID, req.DestinationBranchID} {
		branch, err := s.branches.GetByID(ctx, branchID)
		if err != nil {
			if errors.Is(err, tenant.ErrBranchNotFound) {
				return nil, ErrBranchMismatch
			}
			return nil, fmt.Errorf("validating branch: %w", err)
		}
		if branch.OrganizationID != orgID {
			return nil, ErrBranchMismatch
		}
	}

	sh := &Shipment{
		OrganizationID:      orgID,
		SourceBranchID:      req.SourceBranchID,
		DestinationBranchID: req.DestinationBranchID,
		SenderName:          req.SenderName,
		SenderPhone:         req.SenderPhone,
		ReceiverName:        req.ReceiverName,
		ReceiverPhone:       req.ReceiverPhone,
		Description:         req.Description,
		Price:               req.Price,
		PaymentMode:         req.PaymentMode,
	}
	if err := s.repo.Create(ctx, sh, req.Location); err != nil {
		return nil, err
	}

	s.notify(ctx, sh.SenderPhone,
		fmt.Sprintf("Shipment %s booked. Track it with your tracking ID.", sh.TrackingID))

	return sh, nil
}

// UpdateStatus moves a shipment to the given status with a history
// entry. Delivery notifies the receiver.
func (s *Service) UpdateStatus(ctx context.Context, orgID, trackingID string, status Status, location, remarks string) (*Shipment, error) {
	sh, err := s.repo.UpdateStatus(ctx, orgID, trackingID, status, location, remarks)
	if err != nil {
		return nil, err
	}

	if status == StatusDelivered {
		s.notify(ctx, sh.ReceiverPhone,
			fmt.Sprintf("Shipment %s has been delivered.", sh.TrackingID))
	}

	return sh, nil
}

// Get retrieves a shipment with history, scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, trackingID string) (*Shipment, error) {
	return s.repo.GetByTracking(ctx, orgID, trackingID)
}

// Track retrieves a shipment by tracking ID without tenant scoping.
// This backs the public tracking endpoint.
func (s *Service) Track(ctx context.Context, trackingID string) (*Shipment, error) {
	return s.repo.GetByTracking(ctx, "", trackingID)
}

// ListForOrganization returns all of an organization's shipments.
func (s *Service) ListForOrganization(ctx context.Context, orgID string) ([]Shipment, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// ListForBranch returns shipments where the branch is source or destination.
func (s *Service) ListForBranch(ctx context.Context, orgID, branchID string) ([]Shipment, error) {
	return s.repo.ListByBranch(ctx, orgID, branchID)
}

func (s *Service) notify(ctx context.Context, phone, message string) {
	if err := s.notifier.Send(ctx, phone, message); err != nil {
		s.logger.Warn("sms notification failed", "phone", phone, "error", err)
	}
}
