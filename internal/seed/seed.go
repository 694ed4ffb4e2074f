package seed

import (
	"context"
	"fmt"
	"log/slog"

	"sharekindness/internal/middleware"
	"sharekindness/internal/models"
	"sharekindness/internal/repository"
	"sharekindness/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	NumDonations int
	// MaxRequestsPerDonation bounds how many recipients ask for each lot.
	MaxRequestsPerDonation int
	// RequestCapacity is passed to the AllocationEngine.
	RequestCapacity int
	ShouldClean     bool
	SkipBcrypt      bool
	MaxDays         int
	RandSeed        int64
}

// DefaultOptions is a small but lively demo dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:               25,
		NumDonations:           60,
		MaxRequestsPerDonation: 4,
		RequestCapacity:        service.DefaultRequestCapacity,
		MaxDays:                60,
	}
}

// Summary counts what a seeding run produced.
type Summary struct {
	Users     int
	Donations int
	Requests  int
	Approved  int
	Rejected  int
	Claimed   int
	Withdrawn int
}

// Seeder drives demo data through the AllocationEngine so seeded state
// obeys the same rules as live traffic.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	engine  *service.AllocationEngine
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(db, opts),
		engine:  service.NewAllocationEngine(repository.NewStore(db), nil, opts.RequestCapacity),
	}
}

// Seed populates the database with users, donations and requests in
// every lifecycle state.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	return NewSeeder(db, opts).Run(ctx)
}

// Run executes the configured seeding.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	middleware.Logger.Info("Starting database seeding",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("donations", s.opts.NumDonations),
	)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	summary := &Summary{}

	users, err := s.SeedUsers(s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	summary.Users = len(users)
	if len(users) < 2 {
		middleware.Logger.Info("Not enough users for donations, stopping")
		return summary, nil
	}

	for i := 0; i < s.opts.NumDonations; i++ {
		if err := s.seedDonation(ctx, users, summary); err != nil {
			return nil, err
		}
	}

	middleware.Logger.Info("Database seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("donations", summary.Donations),
		slog.Int("requests", summary.Requests),
		slog.Int("approved", summary.Approved),
		slog.Int("claimed", summary.Claimed),
		slog.Int("withdrawn", summary.Withdrawn),
	)
	return summary, nil
}

// ClearAll removes every request, donation and user.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("Clearing existing data")
	return s.db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.Request{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.Donation{}).Error; err != nil {
			return err
		}
		return all.Unscoped().Delete(&models.User{}).Error
	})
}

// SeedUsers creates count users. A fixed "demo" account is included first
// unless it already exists, so there is always a known login.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	var demoCount int64
	if err := s.db.Model(&models.User{}).Where("username = ?", "demo").Count(&demoCount).Error; err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		var overrides []func(*models.User)
		if i == 0 && demoCount == 0 {
			overrides = append(overrides, func(u *models.User) {
				u.Username = "demo"
				u.Email = "demo@example.com"
				u.IsVerified = true
			})
		}
		user, err := s.factory.CreateUser(overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedDonation(ctx context.Context, users []*models.User, summary *Summary) error {
	donor := s.factory.Pick(users, 1, 0)[0]
	donation, err := s.engine.CreateDonation(ctx, donor.ID, s.factory.BuildDonation())
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	summary.Donations++

	if err := s.db.Model(&models.Donation{}).Where("id = ?", donation.ID).
		UpdateColumn("created_at", s.factory.CreatedAt()).Error; err != nil {
		return fmt.Errorf("backdate donation: %w", err)
	}

	maxRequests := s.opts.MaxRequestsPerDonation
	if maxRequests <= 0 {
		maxRequests = 1
	}
	var pending []*models.Request
	for _, recipient := range s.factory.Pick(users, s.factory.faker.Number(0, maxRequests), donor.ID) {
		qty := s.factory.faker.Number(1, min(donation.Quantity, 3))
		req, err := s.engine.SubmitRequest(ctx, recipient.ID, donation.ID, qty, s.factory.RequestComment())
		if err != nil {
			if conflict(err) {
				break
			}
			return fmt.Errorf("submit request: %w", err)
		}
		summary.Requests++
		pending = append(pending, req)
	}

	// Approval cascades over the siblings, so only unapproved lots see
	// individual rejections.
	if len(pending) > 0 && s.factory.Chance(0.6) {
		first := pending[0]
		approved, err := s.engine.Decide(ctx, donor.ID, first.ID, models.DecisionApprove)
		switch {
		case err == nil:
			summary.Approved++
			if s.factory.Chance(0.5) {
				if _, err := s.engine.Claim(ctx, approved.UserID, approved.ID); err == nil {
					summary.Claimed++
				} else if !conflict(err) {
					return fmt.Errorf("claim request: %w", err)
				}
			}
		case !conflict(err):
			return fmt.Errorf("approve request: %w", err)
		}
	} else {
		for _, req := range pending {
			if !s.factory.Chance(0.3) {
				continue
			}
			if _, err := s.engine.Decide(ctx, donor.ID, req.ID, models.DecisionReject); err == nil {
				summary.Rejected++
			} else if !conflict(err) {
				return fmt.Errorf("reject request: %w", err)
			}
		}
	}

	if s.factory.Chance(0.1) {
		if _, err := s.engine.WithdrawDonation(ctx, donor.ID, donation.ID); err == nil {
			summary.Withdrawn++
		} else if !conflict(err) {
			return fmt.Errorf("withdraw donation: %w", err)
		}
	}
	return nil
}

// conflict reports engine refusals that are expected when random choices
// collide with allocation rules.
func conflict(err error) bool {
	switch models.CodeOf(err) {
	case models.CodeNotAvailable,
		models.CodeDonationUnavailable,
		models.CodeDuplicateRequest,
		models.CodeCapacityReached,
		models.CodeAlreadyProcessed,
		models.CodeInvalidTransition,
		models.CodeInsufficientQuantity:
		return true
	}
	return false
}
