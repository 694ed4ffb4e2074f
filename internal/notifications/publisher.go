package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"sharekindness/internal/middleware"
	"sharekindness/internal/models"
)

// Event types published on user and broadcast channels.
const (
	EventRequestReceived  = "request_received"
	EventRequestApproved  = "request_approved"
	EventRequestRejected  = "request_rejected"
	EventRequestClaimed   = "request_claimed"
	EventDonationCreated  = "donation_created"
	EventDonationClosed   = "donation_closed"
	EventDonationClaimed  = "donation_claimed"
	EventDonationWithdraw = "donation_withdrawn"
)

// Event is the JSON envelope written to a notification channel.
type Event struct {
	Type       string                  `json:"type"`
	DonationID uint                    `json:"donation_id"`
	RequestID  uint                    `json:"request_id,omitempty"`
	Status     string                  `json:"status,omitempty"`
	Category   models.DonationCategory `json:"category,omitempty"`
	ItemName   string                  `json:"item_name,omitempty"`
	At         time.Time               `json:"at"`
}

// AllocationPublisher turns committed allocation events into pub/sub messages
// for the donor, the requester and any cascade-rejected requesters.
type AllocationPublisher struct {
	notifier *Notifier
	now      func() time.Time
}

// NewAllocationPublisher returns a publisher writing through n.
func NewAllocationPublisher(n *Notifier) *AllocationPublisher {
	return &AllocationPublisher{notifier: n, now: time.Now}
}

func (p *AllocationPublisher) publish(ctx context.Context, userID uint, ev Event) {
	ev.At = p.now().UTC()
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.notifier.PublishUser(ctx, userID, string(b)); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.String("type", ev.Type),
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}

func (p *AllocationPublisher) RequestSubmitted(ctx context.Context, req *models.Request, donation *models.Donation) {
	p.publish(ctx, donation.DonorID, Event{
		Type:       EventRequestReceived,
		DonationID: donation.ID,
		RequestID:  req.ID,
		Status:     string(req.Status),
		ItemName:   donation.ItemName,
	})
}

func (p *AllocationPublisher) RequestDecided(ctx context.Context, req *models.Request, donation *models.Donation, rejectedUserIDs []uint) {
	typ := EventRequestRejected
	if req.Status == models.RequestStatusApproved {
		typ = EventRequestApproved
	}
	p.publish(ctx, req.UserID, Event{
		Type:       typ,
		DonationID: donation.ID,
		RequestID:  req.ID,
		Status:     string(req.Status),
		ItemName:   donation.ItemName,
	})
	for _, uid := range rejectedUserIDs {
		p.publish(ctx, uid, Event{
			Type:       EventRequestRejected,
			DonationID: donation.ID,
			Status:     string(models.RequestStatusRejected),
			ItemName:   donation.ItemName,
		})
	}
}

func (p *AllocationPublisher) RequestClaimed(ctx context.Context, req *models.Request, donation *models.Donation) {
	p.publish(ctx, donation.DonorID, Event{
		Type:       EventRequestClaimed,
		DonationID: donation.ID,
		RequestID:  req.ID,
		Status:     string(req.Status),
		ItemName:   donation.ItemName,
	})
}

func (p *AllocationPublisher) DonationCreated(ctx context.Context, donation *models.Donation) {
	b, err := json.Marshal(Event{
		Type:       EventDonationCreated,
		DonationID: donation.ID,
		Status:     string(donation.Status),
		Category:   donation.Category,
		ItemName:   donation.ItemName,
		At:         p.now().UTC(),
	})
	if err != nil {
		return
	}
	if err := p.notifier.PublishBroadcast(ctx, string(b)); err != nil {
		middleware.Logger.WarnContext(ctx, "broadcast publish failed", slog.String("error", err.Error()))
	}
}

func (p *AllocationPublisher) DonationStatusChanged(ctx context.Context, donation *models.Donation, change models.DonationChange) {
	var typ string
	switch donation.Status {
	case models.DonationStatusClosed:
		typ = EventDonationClosed
	case models.DonationStatusClaimed:
		typ = EventDonationClaimed
	case models.DonationStatusExpired:
		typ = EventDonationWithdraw
	default:
		return
	}
	ev := Event{
		Type:       typ,
		DonationID: donation.ID,
		Status:     string(donation.Status),
		ItemName:   donation.ItemName,
	}
	p.publish(ctx, donation.DonorID, ev)
	for _, uid := range change.Rejected {
		p.publish(ctx, uid, ev)
	}
}

func (*AllocationPublisher) OperationFailed(context.Context, string, error) {}
