package observability

import (
	"context"
	"log/slog"
	"strings"

	"sharekindness/internal/models"
)

// AllocationObserver logs committed allocation events and feeds the
// allocation counters.
type AllocationObserver struct {
	logger *Logger
}

// NewAllocationObserver returns an observer that writes to logger, or to
// GlobalLogger when logger is nil.
func NewAllocationObserver(logger *slog.Logger) *AllocationObserver {
	return &AllocationObserver{logger: NewLogger(logger)}
}

func (o *AllocationObserver) RequestSubmitted(ctx context.Context, req *models.Request, donation *models.Donation) {
	RequestEvents.WithLabelValues("submitted").Inc()
	o.logger.InfoContext(ctx, "request submitted",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("donation_id", uint64(donation.ID)),
		slog.Uint64("requester_id", uint64(req.UserID)),
		slog.Int("requested_quantity", req.RequestedQuantity),
	)
}

func (o *AllocationObserver) RequestDecided(ctx context.Context, req *models.Request, donation *models.Donation, rejectedUserIDs []uint) {
	RequestEvents.WithLabelValues(strings.ToLower(string(req.Status))).Inc()
	if n := len(rejectedUserIDs); n > 0 {
		CascadeRejections.Add(float64(n))
	}
	o.logger.InfoContext(ctx, "request decided",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("donation_id", uint64(donation.ID)),
		slog.String("status", string(req.Status)),
		slog.Int("remaining_quantity", donation.Quantity),
		slog.Int("cascade_rejected", len(rejectedUserIDs)),
	)
}

func (o *AllocationObserver) RequestClaimed(ctx context.Context, req *models.Request, donation *models.Donation) {
	RequestEvents.WithLabelValues("claimed").Inc()
	o.logger.InfoContext(ctx, "request claimed",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("donation_id", uint64(donation.ID)),
		slog.String("donation_status", string(donation.Status)),
	)
}

func (o *AllocationObserver) DonationCreated(ctx context.Context, donation *models.Donation) {
	DonationTransitions.WithLabelValues("", string(donation.Status)).Inc()
	o.logger.InfoContext(ctx, "donation created",
		slog.Uint64("donation_id", uint64(donation.ID)),
		slog.Uint64("donor_id", uint64(donation.DonorID)),
		slog.String("category", string(donation.Category)),
		slog.Int("quantity", donation.Quantity),
	)
}

func (o *AllocationObserver) DonationStatusChanged(ctx context.Context, donation *models.Donation, change models.DonationChange) {
	DonationTransitions.WithLabelValues(string(change.From), string(donation.Status)).Inc()
	if n := len(change.Rejected); n > 0 {
		CascadeRejections.Add(float64(n))
	}
	o.logger.InfoContext(ctx, "donation status changed",
		slog.Uint64("donation_id", uint64(donation.ID)),
		slog.String("from", string(change.From)),
		slog.String("to", string(donation.Status)),
		slog.Int("quantity", donation.Quantity),
		slog.Int("requesters", len(change.Requesters)),
	)
}

// OperationFailed records every failed operation. Internal errors are logged
// at error level; domain rejections are expected traffic and stay at info.
func (o *AllocationObserver) OperationFailed(ctx context.Context, operation string, err error) {
	code := models.CodeOf(err)
	AllocationFailures.WithLabelValues(operation, code).Inc()

	attrs := []any{
		slog.String("operation", operation),
		slog.String("code", code),
		slog.String("error", err.Error()),
	}
	if code == models.CodeInternal {
		o.logger.ErrorContext(ctx, "allocation operation failed", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "allocation operation rejected", attrs...)
}
