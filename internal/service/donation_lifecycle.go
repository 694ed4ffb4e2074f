package service

import (
	"context"

	"sharekindness/internal/models"
	"sharekindness/internal/repository"
)

// DonationLifecycle is the only writer of a donation's quantity and status.
// Bind it to transaction-scoped repositories; it does no locking itself.
type DonationLifecycle struct {
	donations repository.DonationRepository
	requests  repository.RequestRepository
}

// NewDonationLifecycle returns a DonationLifecycle over the given repositories.
func NewDonationLifecycle(donations repository.DonationRepository, requests repository.RequestRepository) *DonationLifecycle {
	return &DonationLifecycle{donations: donations, requests: requests}
}

// TryReserve deducts amount from the donation and closes it when nothing
// remains.
func (l *DonationLifecycle) TryReserve(ctx context.Context, donation *models.Donation, amount int) error {
	if donation.Status != models.DonationStatusAvailable {
		return models.NewNotAvailableError(donation.ID)
	}
	if amount <= 0 {
		return models.NewValidationError("Reserved quantity must be positive")
	}
	if amount > donation.Quantity {
		return models.NewInsufficientQuantityError(amount, donation.Quantity)
	}

	donation.Quantity -= amount
	if donation.Quantity == 0 {
		donation.Status = models.DonationStatusClosed
	}
	return l.donations.UpdateState(ctx, donation)
}

// CloseForCapacity closes the donation regardless of its remaining quantity.
func (l *DonationLifecycle) CloseForCapacity(ctx context.Context, donation *models.Donation) error {
	donation.Status = models.DonationStatusClosed
	return l.donations.UpdateState(ctx, donation)
}

// MarkFullyClaimed moves the donation to CLAIMED once every approved request
// on it has been picked up. Calling it on a CLAIMED donation is a no-op.
func (l *DonationLifecycle) MarkFullyClaimed(ctx context.Context, donation *models.Donation) error {
	if donation.Status == models.DonationStatusClaimed {
		return nil
	}

	outstanding, err := l.requests.CountByDonationAndStatus(ctx, donation.ID, models.RequestStatusApproved)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return models.NewInvalidTransitionError(string(donation.Status), string(models.DonationStatusClaimed))
	}

	donation.Status = models.DonationStatusClaimed
	return l.donations.UpdateState(ctx, donation)
}

// Withdraw expires an open donation. Approved requests on it stay claimable.
func (l *DonationLifecycle) Withdraw(ctx context.Context, donation *models.Donation) error {
	switch donation.Status {
	case models.DonationStatusAvailable, models.DonationStatusReserved:
	default:
		return models.NewDonationUnavailableError(donation.ID, donation.Status)
	}

	donation.Status = models.DonationStatusExpired
	return l.donations.UpdateState(ctx, donation)
}
