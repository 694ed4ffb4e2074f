package repository

import (
	"context"

	"sharekindness/internal/observability"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in one unit of work.
type Store interface {
	Donations() DonationRepository
	Requests() RequestRepository
	Users() UserRepository
	// WithinTx runs fn in a database transaction. The Store passed to fn is
	// bound to that transaction; fn must not use the outer Store. Returning
	// an error rolls back. Nested calls reuse the open transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db   *gorm.DB
	inTx bool
}

var txMetrics = observability.NewDatabaseMetrics("allocation")

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Donations() DonationRepository {
	return &donationRepository{db: s.db, inTx: s.inTx}
}

func (s *gormStore) Requests() RequestRepository {
	return &requestRepository{db: s.db, inTx: s.inTx}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	defer txMetrics.TrackQuery("transaction")()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, inTx: true})
	})
}
