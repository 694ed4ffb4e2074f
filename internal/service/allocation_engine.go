package service

import (
	"context"
	"strings"

	"sharekindness/internal/models"
	"sharekindness/internal/observability"
	"sharekindness/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultRequestCapacity is the most requests a donation accepts, decided or not.
const DefaultRequestCapacity = 5

// Engine operation names, as reported to OperationFailed.
const (
	OpSubmitRequest    = "submit_request"
	OpDecide           = "decide"
	OpClaim            = "claim"
	OpCreateDonation   = "create_donation"
	OpWithdrawDonation = "withdraw_donation"
)

// DonationInput carries the donor-supplied fields of a new donation.
type DonationInput struct {
	ItemName    string
	Description string
	Category    models.DonationCategory
	Quantity    int
	ImageURL    string
}

// Dashboard is a user's view of their own donations and requests.
type Dashboard struct {
	Donations []models.Donation `json:"donations"`
	Requests  []models.Request  `json:"requests"`
	Roles     models.UserRoles  `json:"roles"`
}

// NotificationCounts are the pending items waiting on a user.
type NotificationCounts struct {
	// PendingRequests are undecided requests on the user's donations.
	PendingRequests int64 `json:"pending_requests"`
	// PendingDonations are the user's own requests still awaiting a donor.
	PendingDonations int64 `json:"pending_donations"`
}

// AllocationEngine runs every operation that reads and then writes a
// donation inside one transaction holding the donation's row lock.
type AllocationEngine struct {
	store    repository.Store
	observer AllocationObserver
	capacity int
}

// NewAllocationEngine returns an engine over store. A nil observer discards
// events; capacity below 1 falls back to DefaultRequestCapacity.
func NewAllocationEngine(store repository.Store, observer AllocationObserver, capacity int) *AllocationEngine {
	if observer == nil {
		observer = noopObserver{}
	}
	if capacity < 1 {
		capacity = DefaultRequestCapacity
	}
	return &AllocationEngine{store: store, observer: observer, capacity: capacity}
}

// Capacity returns the per-donation request cap.
func (e *AllocationEngine) Capacity() int {
	return e.capacity
}

// atomically runs fn in a transaction and replays its events after commit.
func (e *AllocationEngine) atomically(ctx context.Context, fn func(tx repository.Store, events *eventBuffer) error) error {
	events := &eventBuffer{}
	if err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(tx, events)
	}); err != nil {
		return err
	}
	events.flush(ctx, e.observer)
	return nil
}

// donationChange describes a status change of donation for observers. It
// must run inside the transaction that made the change.
func donationChange(ctx context.Context, tx repository.Store, donation *models.Donation, from models.DonationStatus, rejected []uint) (models.DonationChange, error) {
	requesters, err := tx.Requests().ListRequesterIDs(ctx, donation.ID)
	if err != nil {
		return models.DonationChange{}, err
	}
	return models.DonationChange{From: from, Rejected: rejected, Requesters: requesters}, nil
}

func (e *AllocationEngine) fail(ctx context.Context, span *observability.Span, operation string, err error) error {
	span.SetError(err)
	span.AddAttributes(attribute.String("allocation.error_code", models.CodeOf(err)))
	e.observer.OperationFailed(ctx, operation, err)
	return err
}

// SubmitRequest files a PENDING request for userID against donationID.
// When the donation already holds its full quota of requests it is closed,
// the closure is committed, and CapacityReached is returned.
func (e *AllocationEngine) SubmitRequest(ctx context.Context, userID, donationID uint, requestedQuantity int, comment string) (*models.Request, error) {
	span, ctx := observability.NewSpan(ctx, "allocation.submit_request",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("donation.id", int64(donationID)),
	)
	defer span.End()

	var (
		created     *models.Request
		capacityErr error
	)
	err := e.atomically(ctx, func(tx repository.Store, events *eventBuffer) error {
		donations := NewDonationLifecycle(tx.Donations(), tx.Requests())
		requests := NewRequestLifecycle(tx.Requests())

		donation, err := tx.Donations().GetForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if donation.Status != models.DonationStatusAvailable {
			return models.NewNotAvailableError(donation.ID)
		}
		if err := requests.EnsureUnique(ctx, userID, donation.ID); err != nil {
			return err
		}

		count, err := tx.Requests().CountByDonation(ctx, donation.ID)
		if err != nil {
			return err
		}
		if count >= int64(e.capacity) {
			from := donation.Status
			if err := donations.CloseForCapacity(ctx, donation); err != nil {
				return err
			}
			change, err := donationChange(ctx, tx, donation, from, nil)
			if err != nil {
				return err
			}
			events.add(func(ctx context.Context, o AllocationObserver) {
				o.DonationStatusChanged(ctx, donation, change)
			})
			capacityErr = models.NewCapacityReachedError(donation.ID, e.capacity)
			return nil
		}

		if requestedQuantity <= 0 || requestedQuantity > donation.Quantity {
			return models.NewValidationError("Requested quantity must be between 1 and the remaining quantity")
		}

		req, err := requests.Create(ctx, userID, donation, requestedQuantity, comment)
		if err != nil {
			return err
		}
		req.Donation = donation
		created = req
		events.add(func(ctx context.Context, o AllocationObserver) {
			o.RequestSubmitted(ctx, req, donation)
		})
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, span, OpSubmitRequest, err)
	}
	if capacityErr != nil {
		return nil, e.fail(ctx, span, OpSubmitRequest, capacityErr)
	}

	span.AddAttributes(attribute.Int64("request.id", int64(created.ID)))
	return created, nil
}

// Decide approves or rejects a PENDING request on behalf of the donor.
// Approval reserves the requested quantity and rejects every other PENDING
// request on the donation in the same transaction.
func (e *AllocationEngine) Decide(ctx context.Context, donorID, requestID uint, action models.DecisionAction) (*models.Request, error) {
	span, ctx := observability.NewSpan(ctx, "allocation.decide",
		attribute.Int64("user.id", int64(donorID)),
		attribute.Int64("request.id", int64(requestID)),
		attribute.String("decision", string(action)),
	)
	defer span.End()

	if !action.Valid() {
		return nil, e.fail(ctx, span, OpDecide, models.NewValidationError("Action must be approve or reject"))
	}

	var decided *models.Request
	err := e.atomically(ctx, func(tx repository.Store, events *eventBuffer) error {
		donations := NewDonationLifecycle(tx.Donations(), tx.Requests())
		requests := NewRequestLifecycle(tx.Requests())

		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Donation == nil || req.Donation.DonorID != donorID {
			return models.NewUnauthorizedError("Only the donor can decide on this request")
		}

		donation, err := tx.Donations().GetForUpdate(ctx, req.DonationID)
		if err != nil {
			return err
		}
		current, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		current.Donation = donation

		if current.Status != models.RequestStatusPending {
			return models.NewAlreadyProcessedError(current.ID, current.Status)
		}
		if donation.Status.Terminal() {
			return models.NewDonationUnavailableError(donation.ID, donation.Status)
		}

		if action == models.DecisionReject {
			if err := requests.Transition(ctx, current, donation, models.RequestStatusRejected, donorID); err != nil {
				return err
			}
			decided = current
			events.add(func(ctx context.Context, o AllocationObserver) {
				o.RequestDecided(ctx, current, donation, nil)
			})
			return nil
		}

		from := donation.Status
		if err := donations.TryReserve(ctx, donation, current.RequestedQuantity); err != nil {
			return err
		}
		if err := requests.Transition(ctx, current, donation, models.RequestStatusApproved, donorID); err != nil {
			return err
		}
		rejected, err := requests.RejectPendingSiblings(ctx, donation.ID, current.ID)
		if err != nil {
			return err
		}

		decided = current
		events.add(func(ctx context.Context, o AllocationObserver) {
			o.RequestDecided(ctx, current, donation, rejected)
		})
		if donation.Status != from {
			change, err := donationChange(ctx, tx, donation, from, nil)
			if err != nil {
				return err
			}
			events.add(func(ctx context.Context, o AllocationObserver) {
				o.DonationStatusChanged(ctx, donation, change)
			})
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, span, OpDecide, err)
	}
	return decided, nil
}

// Claim marks the caller's APPROVED request as picked up. Claiming the last
// approved request on a donation moves the donation to CLAIMED.
func (e *AllocationEngine) Claim(ctx context.Context, userID, requestID uint) (*models.Request, error) {
	span, ctx := observability.NewSpan(ctx, "allocation.claim",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("request.id", int64(requestID)),
	)
	defer span.End()

	var claimed *models.Request
	err := e.atomically(ctx, func(tx repository.Store, events *eventBuffer) error {
		donations := NewDonationLifecycle(tx.Donations(), tx.Requests())
		requests := NewRequestLifecycle(tx.Requests())

		req, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != userID {
			return models.NewUnauthorizedError("Only the requester can claim this request")
		}

		donation, err := tx.Donations().GetForUpdate(ctx, req.DonationID)
		if err != nil {
			return err
		}
		current, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		current.Donation = donation

		if current.Status != models.RequestStatusApproved {
			return models.NewInvalidTransitionError(string(current.Status), string(models.RequestStatusClaimed))
		}
		if err := requests.Transition(ctx, current, donation, models.RequestStatusClaimed, userID); err != nil {
			return err
		}

		outstanding, err := tx.Requests().CountByDonationAndStatus(ctx, donation.ID, models.RequestStatusApproved)
		if err != nil {
			return err
		}
		from := donation.Status
		if outstanding == 0 {
			if err := donations.MarkFullyClaimed(ctx, donation); err != nil {
				return err
			}
		}

		claimed = current
		events.add(func(ctx context.Context, o AllocationObserver) {
			o.RequestClaimed(ctx, current, donation)
		})
		if donation.Status != from {
			change, err := donationChange(ctx, tx, donation, from, nil)
			if err != nil {
				return err
			}
			events.add(func(ctx context.Context, o AllocationObserver) {
				o.DonationStatusChanged(ctx, donation, change)
			})
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, span, OpClaim, err)
	}
	return claimed, nil
}

// CreateDonation stores a new AVAILABLE donation owned by donorID.
func (e *AllocationEngine) CreateDonation(ctx context.Context, donorID uint, in DonationInput) (*models.Donation, error) {
	span, ctx := observability.NewSpan(ctx, "allocation.create_donation",
		attribute.Int64("user.id", int64(donorID)),
	)
	defer span.End()

	donation, err := newDonation(donorID, in)
	if err != nil {
		return nil, e.fail(ctx, span, OpCreateDonation, err)
	}
	if err := e.store.Donations().Create(ctx, donation); err != nil {
		return nil, e.fail(ctx, span, OpCreateDonation, err)
	}

	span.AddAttributes(attribute.Int64("donation.id", int64(donation.ID)))
	e.observer.DonationCreated(ctx, donation)
	return donation, nil
}

func newDonation(donorID uint, in DonationInput) (*models.Donation, error) {
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, models.NewValidationError("Item name is required")
	}
	if len([]rune(name)) > 100 {
		return nil, models.NewValidationError("Item name must be at most 100 characters")
	}
	category := in.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return nil, models.NewValidationError("Unknown category " + string(category))
	}
	if in.Quantity <= 0 {
		return nil, models.NewValidationError("Quantity must be greater than zero")
	}

	return &models.Donation{
		DonorID:     donorID,
		ItemName:    name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Quantity:    in.Quantity,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Status:      models.DonationStatusAvailable,
	}, nil
}

// WithdrawDonation expires an open donation and rejects its PENDING
// requests. Already approved requests can still be claimed.
func (e *AllocationEngine) WithdrawDonation(ctx context.Context, donorID, donationID uint) (*models.Donation, error) {
	span, ctx := observability.NewSpan(ctx, "allocation.withdraw_donation",
		attribute.Int64("user.id", int64(donorID)),
		attribute.Int64("donation.id", int64(donationID)),
	)
	defer span.End()

	var withdrawn *models.Donation
	err := e.atomically(ctx, func(tx repository.Store, events *eventBuffer) error {
		donations := NewDonationLifecycle(tx.Donations(), tx.Requests())
		requests := NewRequestLifecycle(tx.Requests())

		donation, err := tx.Donations().GetForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if donation.DonorID != donorID {
			return models.NewUnauthorizedError("Only the donor can withdraw this donation")
		}

		from := donation.Status
		if err := donations.Withdraw(ctx, donation); err != nil {
			return err
		}
		rejected, err := requests.RejectPendingSiblings(ctx, donation.ID, 0)
		if err != nil {
			return err
		}

		change, err := donationChange(ctx, tx, donation, from, rejected)
		if err != nil {
			return err
		}
		withdrawn = donation
		events.add(func(ctx context.Context, o AllocationObserver) {
			o.DonationStatusChanged(ctx, donation, change)
		})
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, span, OpWithdrawDonation, err)
	}
	return withdrawn, nil
}

// ListUserDashboard returns the user's donations with their requests and
// requesters, and the user's own requests with donation and donor.
func (e *AllocationEngine) ListUserDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	donations, err := e.store.Donations().ListByDonorWithRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	requests, err := e.store.Requests().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if donations == nil {
		donations = []models.Donation{}
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return &Dashboard{
		Donations: donations,
		Requests:  requests,
		Roles: models.UserRoles{
			IsDonor:     len(donations) > 0,
			IsRecipient: len(requests) > 0,
		},
	}, nil
}

// UserRoles derives donor and recipient roles from stored activity.
func (e *AllocationEngine) UserRoles(ctx context.Context, userID uint) (models.UserRoles, error) {
	donations, err := e.store.Donations().CountByDonor(ctx, userID)
	if err != nil {
		return models.UserRoles{}, err
	}
	requests, err := e.store.Requests().CountByUser(ctx, userID)
	if err != nil {
		return models.UserRoles{}, err
	}
	return models.UserRoles{IsDonor: donations > 0, IsRecipient: requests > 0}, nil
}

// NotificationCounts reports what is waiting on the user.
func (e *AllocationEngine) NotificationCounts(ctx context.Context, userID uint) (*NotificationCounts, error) {
	incoming, err := e.store.Requests().CountPendingForDonor(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := e.store.Requests().CountByUserAndStatus(ctx, userID, models.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	return &NotificationCounts{PendingRequests: incoming, PendingDonations: outgoing}, nil
}

// GetDonation returns a donation with its donor.
func (e *AllocationEngine) GetDonation(ctx context.Context, id uint) (*models.Donation, error) {
	return e.store.Donations().GetByID(ctx, id)
}

// ListDonations lists donations matching filter. An empty status lists
// AVAILABLE donations only.
func (e *AllocationEngine) ListDonations(ctx context.Context, filter repository.DonationFilter) ([]models.Donation, error) {
	if filter.Status == "" {
		filter.Status = models.DonationStatusAvailable
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, models.NewValidationError("Unknown category " + string(filter.Category))
	}
	return e.store.Donations().List(ctx, filter)
}

// GetRequest returns a request visible to userID, who must be either the
// requester or the donation's donor.
func (e *AllocationEngine) GetRequest(ctx context.Context, userID, requestID uint) (*models.Request, error) {
	req, err := e.FindRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanViewRequest(userID, req); err != nil {
		return nil, err
	}
	return req, nil
}

// FindRequest returns a request with its donation, without a visibility check.
func (e *AllocationEngine) FindRequest(ctx context.Context, requestID uint) (*models.Request, error) {
	return e.store.Requests().GetByID(ctx, requestID)
}

// CanViewRequest reports whether userID is the requester or the donor of req.
func CanViewRequest(userID uint, req *models.Request) error {
	if req.UserID != userID && (req.Donation == nil || req.Donation.DonorID != userID) {
		return models.NewUnauthorizedError("You cannot view this request")
	}
	return nil
}

// ListUserRequests returns the user's own requests, newest first.
func (e *AllocationEngine) ListUserRequests(ctx context.Context, userID uint) ([]models.Request, error) {
	return e.store.Requests().ListByUser(ctx, userID)
}
