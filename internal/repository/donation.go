package repository

import (
	"context"
	"errors"
	"time"

	"sharekindness/internal/cache"
	"sharekindness/internal/models"
	"sharekindness/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DonationFilter narrows List results. Zero values match everything.
type DonationFilter struct {
	Category models.DonationCategory
	Status   models.DonationStatus
	Limit    int
	Offset   int
}

// DonationRepository defines persistence operations for donations.
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id uint) (*models.Donation, error)
	// GetForUpdate loads the donation and holds a row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.Donation, error)
	List(ctx context.Context, filter DonationFilter) ([]models.Donation, error)
	ListByDonorWithRequests(ctx context.Context, donorID uint) ([]models.Donation, error)
	UpdateState(ctx context.Context, donation *models.Donation) error
	CountByDonor(ctx context.Context, donorID uint) (int64, error)
}

type donationRepository struct {
	db   *gorm.DB
	inTx bool
}

var (
	donationLog     = observability.NewRepoLogger("donations")
	donationMetrics = observability.NewDatabaseMetrics("donations")
)

// NewDonationRepository returns a DonationRepository outside any transaction.
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

// reader prefers the replica, except inside a transaction where reads must
// see the transaction's own writes.
func (r *donationRepository) reader() *gorm.DB {
	if r.inTx {
		return r.db
	}
	return readDB(r.db)
}

func (r *donationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		donationLog.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	donationLog.LogCreate(ctx, map[string]interface{}{
		"donation_id": donation.ID,
		"donor_id":    donation.DonorID,
		"quantity":    donation.Quantity,
	})
	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	load := func() error {
		if err := r.reader().WithContext(ctx).Preload("Donor").First(&donation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Donation", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	// A transaction must not see a cached copy of a row it may be changing.
	var err error
	if r.inTx {
		err = load()
	} else {
		err = cache.Aside(ctx, cache.DonationKey(id), &donation, cache.DonationTTL, load)
	}
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *donationRepository) GetForUpdate(ctx context.Context, id uint) (*models.Donation, error) {
	defer donationMetrics.TrackQuery("lock")()

	var donation models.Donation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&donation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Donation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &donation, nil
}

func (r *donationRepository) List(ctx context.Context, filter DonationFilter) ([]models.Donation, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	q := r.reader().WithContext(ctx).Model(&models.Donation{}).Preload("Donor")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var donations []models.Donation
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&donations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return donations, nil
}

func (r *donationRepository) ListByDonorWithRequests(ctx context.Context, donorID uint) ([]models.Donation, error) {
	var donations []models.Donation
	if err := r.reader().WithContext(ctx).
		Where("donor_id = ?", donorID).
		Preload("Requests", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Requests.User").
		Order("created_at DESC").Order("id DESC").
		Find(&donations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return donations, nil
}

// UpdateState persists quantity and status only.
func (r *donationRepository) UpdateState(ctx context.Context, donation *models.Donation) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", donation.ID).
		Updates(map[string]interface{}{
			"quantity":   donation.Quantity,
			"status":     donation.Status,
			"updated_at": now,
		})
	if res.Error != nil {
		donationLog.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Donation", donation.ID)
	}
	donation.UpdatedAt = now
	donationLog.LogUpdate(ctx, map[string]interface{}{
		"donation_id": donation.ID,
		"quantity":    donation.Quantity,
		"status":      donation.Status,
	})
	return nil
}

func (r *donationRepository) CountByDonor(ctx context.Context, donorID uint) (int64, error) {
	var count int64
	if err := r.reader().WithContext(ctx).Model(&models.Donation{}).
		Where("donor_id = ?", donorID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
