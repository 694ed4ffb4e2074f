package cache

import (
	"context"

	"sharekindness/internal/models"
)

// DashboardInvalidator drops cached dashboards and donation details touched
// by a committed allocation event.
type DashboardInvalidator struct{}

// NewDashboardInvalidator returns an invalidator bound to the package client.
func NewDashboardInvalidator() *DashboardInvalidator {
	return &DashboardInvalidator{}
}

func (DashboardInvalidator) invalidate(ctx context.Context, donation *models.Donation, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs)+2)
	if donation != nil {
		keys = append(keys, DonationKey(donation.ID), DashboardKey(donation.DonorID))
	}
	for _, id := range userIDs {
		keys = append(keys, DashboardKey(id))
	}
	Invalidate(ctx, keys...)
}

func (i DashboardInvalidator) RequestSubmitted(ctx context.Context, req *models.Request, donation *models.Donation) {
	i.invalidate(ctx, donation, req.UserID)
}

func (i DashboardInvalidator) RequestDecided(ctx context.Context, req *models.Request, donation *models.Donation, rejectedUserIDs []uint) {
	i.invalidate(ctx, donation, append([]uint{req.UserID}, rejectedUserIDs...)...)
}

func (i DashboardInvalidator) RequestClaimed(ctx context.Context, req *models.Request, donation *models.Donation) {
	i.invalidate(ctx, donation, req.UserID)
}

func (i DashboardInvalidator) DonationCreated(ctx context.Context, donation *models.Donation) {
	i.invalidate(ctx, donation)
}

// DonationStatusChanged drops the dashboard of every requester, since each
// one embeds the donation.
func (i DashboardInvalidator) DonationStatusChanged(ctx context.Context, donation *models.Donation, change models.DonationChange) {
	users := make([]uint, 0, len(change.Requesters)+len(change.Rejected))
	users = append(users, change.Requesters...)
	users = append(users, change.Rejected...)
	i.invalidate(ctx, donation, users...)
}

func (DashboardInvalidator) OperationFailed(context.Context, string, error) {}
