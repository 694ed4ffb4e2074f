package service

import (
	"context"

	"sharekindness/internal/models"
)

// AllocationObserver receives allocation events after the owning
// transaction commits. Implementations must not block for long and must not
// fail the operation; errors are theirs to log.
type AllocationObserver interface {
	RequestSubmitted(ctx context.Context, req *models.Request, donation *models.Donation)
	RequestDecided(ctx context.Context, req *models.Request, donation *models.Donation, rejectedUserIDs []uint)
	RequestClaimed(ctx context.Context, req *models.Request, donation *models.Donation)
	DonationCreated(ctx context.Context, donation *models.Donation)
	DonationStatusChanged(ctx context.Context, donation *models.Donation, change models.DonationChange)
	// OperationFailed reports an engine operation that returned err.
	OperationFailed(ctx context.Context, operation string, err error)
}

// MultiObserver fans every event out to each observer in order.
type MultiObserver []AllocationObserver

// NewMultiObserver drops nil entries.
func NewMultiObserver(observers ...AllocationObserver) MultiObserver {
	out := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m MultiObserver) RequestSubmitted(ctx context.Context, req *models.Request, donation *models.Donation) {
	for _, o := range m {
		o.RequestSubmitted(ctx, req, donation)
	}
}

func (m MultiObserver) RequestDecided(ctx context.Context, req *models.Request, donation *models.Donation, rejectedUserIDs []uint) {
	for _, o := range m {
		o.RequestDecided(ctx, req, donation, rejectedUserIDs)
	}
}

func (m MultiObserver) RequestClaimed(ctx context.Context, req *models.Request, donation *models.Donation) {
	for _, o := range m {
		o.RequestClaimed(ctx, req, donation)
	}
}

func (m MultiObserver) DonationCreated(ctx context.Context, donation *models.Donation) {
	for _, o := range m {
		o.DonationCreated(ctx, donation)
	}
}

func (m MultiObserver) DonationStatusChanged(ctx context.Context, donation *models.Donation, change models.DonationChange) {
	for _, o := range m {
		o.DonationStatusChanged(ctx, donation, change)
	}
}

func (m MultiObserver) OperationFailed(ctx context.Context, operation string, err error) {
	for _, o := range m {
		o.OperationFailed(ctx, operation, err)
	}
}

type noopObserver struct{}

func (noopObserver) RequestSubmitted(context.Context, *models.Request, *models.Donation)       {}
func (noopObserver) RequestDecided(context.Context, *models.Request, *models.Donation, []uint) {}
func (noopObserver) RequestClaimed(context.Context, *models.Request, *models.Donation)         {}
func (noopObserver) DonationCreated(context.Context, *models.Donation)                         {}
func (noopObserver) DonationStatusChanged(context.Context, *models.Donation, models.DonationChange) {}
func (noopObserver) OperationFailed(context.Context, string, error)                            {}

// eventBuffer collects events raised inside a transaction. flush replays
// them once the transaction has committed; a rolled-back unit drops them.
type eventBuffer struct {
	events []func(ctx context.Context, o AllocationObserver)
}

func (b *eventBuffer) add(fn func(ctx context.Context, o AllocationObserver)) {
	b.events = append(b.events, fn)
}

func (b *eventBuffer) flush(ctx context.Context, o AllocationObserver) {
	for _, fn := range b.events {
		fn(ctx, o)
	}
	b.events = nil
}
