package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"sharekindness/internal/models"
	"sharekindness/internal/repository"
)

// MaxCommentLength bounds a request comment, counted in runes.
const MaxCommentLength = 255

// requestEdges lists every permitted request status change.
var requestEdges = map[models.RequestStatus][]models.RequestStatus{
	models.RequestStatusPending:  {models.RequestStatusApproved, models.RequestStatusRejected},
	models.RequestStatusApproved: {models.RequestStatusClaimed},
}

func canTransition(from, to models.RequestStatus) bool {
	for _, next := range requestEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestLifecycle enforces the request state machine and the one request
// per user per donation rule.
type RequestLifecycle struct {
	requests repository.RequestRepository
}

// NewRequestLifecycle returns a RequestLifecycle over requests.
func NewRequestLifecycle(requests repository.RequestRepository) *RequestLifecycle {
	return &RequestLifecycle{requests: requests}
}

// EnsureUnique fails with DuplicateRequest when the user already holds a
// request on the donation, whatever its status.
func (l *RequestLifecycle) EnsureUnique(ctx context.Context, userID, donationID uint) error {
	exists, err := l.requests.ExistsForUser(ctx, userID, donationID)
	if err != nil {
		return err
	}
	if exists {
		return models.NewDuplicateRequestError(donationID)
	}
	return nil
}

// Create stores a PENDING request. It does not look at the donation's
// availability or remaining quantity.
func (l *RequestLifecycle) Create(ctx context.Context, userID uint, donation *models.Donation, requestedQuantity int, comment string) (*models.Request, error) {
	if err := l.EnsureUnique(ctx, userID, donation.ID); err != nil {
		return nil, err
	}
	if requestedQuantity <= 0 {
		return nil, models.NewValidationError("Requested quantity must be greater than zero")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comments must be at most %d characters", MaxCommentLength))
	}

	req := &models.Request{
		UserID:            userID,
		DonationID:        donation.ID,
		Status:            models.RequestStatusPending,
		RequestedQuantity: requestedQuantity,
		Comments:          comment,
	}
	if err := l.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Transition moves req to target on behalf of actorID. Decisions belong to
// the donation's donor and claims to the requester.
func (l *RequestLifecycle) Transition(ctx context.Context, req *models.Request, donation *models.Donation, target models.RequestStatus, actorID uint) error {
	if !canTransition(req.Status, target) {
		return models.NewInvalidTransitionError(string(req.Status), string(target))
	}

	switch target {
	case models.RequestStatusApproved, models.RequestStatusRejected:
		if donation == nil || donation.DonorID != actorID {
			return models.NewUnauthorizedError("Only the donor can decide on this request")
		}
	case models.RequestStatusClaimed:
		if req.UserID != actorID {
			return models.NewUnauthorizedError("Only the requester can claim this request")
		}
	}

	if err := l.requests.UpdateStatus(ctx, req.ID, req.Status, target); err != nil {
		return err
	}
	req.Status = target
	return nil
}

// RejectPendingSiblings rejects every other PENDING request on the donation
// in one statement. keepID 0 rejects them all.
func (l *RequestLifecycle) RejectPendingSiblings(ctx context.Context, donationID, keepID uint) ([]uint, error) {
	return l.requests.RejectPendingSiblings(ctx, donationID, keepID)
}
