package repository

import (
	"context"
	"errors"
	"time"

	"sharekindness/internal/models"
	"sharekindness/internal/observability"

	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for recipient requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id uint) (*models.Request, error)
	ExistsForUser(ctx context.Context, userID, donationID uint) (bool, error)
	CountByDonation(ctx context.Context, donationID uint) (int64, error)
	CountByDonationAndStatus(ctx context.Context, donationID uint, status models.RequestStatus) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Request, error)
	// UpdateStatus moves a request from one status to another. It fails with
	// an InvalidTransition error when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uint, from, to models.RequestStatus) error
	// RejectPendingSiblings rejects every PENDING request on the donation
	// except keepID and returns the affected requesters.
	RejectPendingSiblings(ctx context.Context, donationID, keepID uint) ([]uint, error)
	// ListRequesterIDs returns the users holding a request on the donation.
	ListRequesterIDs(ctx context.Context, donationID uint) ([]uint, error)
	CountPendingForDonor(ctx context.Context, donorID uint) (int64, error)
	CountByUserAndStatus(ctx context.Context, userID uint, status models.RequestStatus) (int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type requestRepository struct {
	db   *gorm.DB
	inTx bool
}

var (
	requestLog     = observability.NewRepoLogger("requests")
	requestMetrics = observability.NewDatabaseMetrics("requests")
)

// NewRequestRepository returns a RequestRepository outside any transaction.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) reader() *gorm.DB {
	if r.inTx {
		return r.db
	}
	return readDB(r.db)
}

func (r *requestRepository) Create(ctx context.Context, req *models.Request) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateRequestError(req.DonationID)
		}
		requestLog.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	requestLog.LogCreate(ctx, map[string]interface{}{
		"request_id":  req.ID,
		"donation_id": req.DonationID,
		"user_id":     req.UserID,
	})
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	if err := r.reader().WithContext(ctx).Preload("Donation").First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) ExistsForUser(ctx context.Context, userID, donationID uint) (bool, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("user_id = ? AND donation_id = ?", userID, donationID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *requestRepository) CountByDonation(ctx context.Context, donationID uint) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("donation_id = ?", donationID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *requestRepository) CountByDonationAndStatus(ctx context.Context, donationID uint, status models.RequestStatus) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("donation_id = ? AND status = ?", donationID, status).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *requestRepository) ListByUser(ctx context.Context, userID uint) ([]models.Request, error) {
	var requests []models.Request
	if err := r.reader().WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Donation.Donor").
		Order("created_at DESC").Order("id DESC").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uint, from, to models.RequestStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		requestLog.LogError(ctx, res.Error, "update_status")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewInvalidTransitionError(string(from), string(to))
	}
	requestLog.LogUpdate(ctx, map[string]interface{}{
		"request_id": id,
		"from":       from,
		"to":         to,
	})
	return nil
}

func (r *requestRepository) RejectPendingSiblings(ctx context.Context, donationID, keepID uint) ([]uint, error) {
	defer requestMetrics.TrackQuery("reject_siblings")()

	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Request{}).
			Where("donation_id = ? AND status = ?", donationID, models.RequestStatusPending)
		if keepID != 0 {
			q = q.Where("id <> ?", keepID)
		}
		return q
	}

	var userIDs []uint
	if err := scope().Order("id ASC").Pluck("user_id", &userIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	if err := scope().Updates(map[string]interface{}{
		"status":     models.RequestStatusRejected,
		"updated_at": time.Now(),
	}).Error; err != nil {
		requestLog.LogError(ctx, err, "reject_siblings")
		return nil, models.NewInternalError(err)
	}
	requestLog.LogUpdate(ctx, map[string]interface{}{
		"donation_id": donationID,
		"rejected":    len(userIDs),
	})
	return userIDs, nil
}

func (r *requestRepository) ListRequesterIDs(ctx context.Context, donationID uint) ([]uint, error) {
	var userIDs []uint
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("donation_id = ?", donationID).
		Order("id ASC").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}

func (r *requestRepository) CountPendingForDonor(ctx context.Context, donorID uint) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Joins("JOIN donations ON donations.id = requests.donation_id").
		Where("donations.donor_id = ? AND requests.status = ?", donorID, models.RequestStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *requestRepository) CountByUserAndStatus(ctx context.Context, userID uint, status models.RequestStatus) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *requestRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Request{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
