package seed

import (
	"context"
	"testing"

	"sharekindness/internal/database"
	"sharekindness/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testOptions() Options {
	return Options{
		NumUsers:               8,
		NumDonations:           20,
		MaxRequestsPerDonation: 4,
		RequestCapacity:        3,
		SkipBcrypt:             true,
		MaxDays:                30,
		RandSeed:               42,
	}
}

func TestSeed_ObeysAllocationRules(t *testing.T) {
	db := openTestDB(t)
	opts := testOptions()

	summary, err := Seed(context.Background(), db, opts)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if summary.Users != opts.NumUsers || summary.Donations != opts.NumDonations {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var requestCount int64
	if err := db.Model(&models.Request{}).Count(&requestCount).Error; err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if int(requestCount) != summary.Requests {
		t.Fatalf("summary says %d requests, table has %d", summary.Requests, requestCount)
	}

	var donations []models.Donation
	if err := db.Preload("Requests").Find(&donations).Error; err != nil {
		t.Fatalf("load donations: %v", err)
	}
	if len(donations) != opts.NumDonations {
		t.Fatalf("expected %d donations, got %d", opts.NumDonations, len(donations))
	}

	for _, d := range donations {
		if d.Quantity < 0 {
			t.Fatalf("donation %d has negative quantity %d", d.ID, d.Quantity)
		}
		if len(d.Requests) > opts.RequestCapacity {
			t.Fatalf("donation %d holds %d requests, cap is %d", d.ID, len(d.Requests), opts.RequestCapacity)
		}
		for _, r := range d.Requests {
			if r.UserID == d.DonorID {
				t.Fatalf("donor %d requested their own donation %d", d.DonorID, d.ID)
			}
			if d.Status == models.DonationStatusExpired && r.Status == models.RequestStatusPending {
				t.Fatalf("withdrawn donation %d still has pending request %d", d.ID, r.ID)
			}
		}
	}

	var claimed int64
	if err := db.Model(&models.Request{}).Where("status = ?", models.RequestStatusClaimed).Count(&claimed).Error; err != nil {
		t.Fatalf("count claimed: %v", err)
	}
	if int(claimed) != summary.Claimed {
		t.Fatalf("summary says %d claimed, table has %d", summary.Claimed, claimed)
	}
}

func TestSeed_CleanIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	opts := testOptions()
	opts.ShouldClean = true

	for run := 0; run < 2; run++ {
		if _, err := Seed(context.Background(), db, opts); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}

	var users, donations, demo int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Donation{}).Count(&donations)
	db.Model(&models.User{}).Where("username = ?", "demo").Count(&demo)

	if users != int64(opts.NumUsers) {
		t.Fatalf("expected %d users after reseed, got %d", opts.NumUsers, users)
	}
	if donations != int64(opts.NumDonations) {
		t.Fatalf("expected %d donations after reseed, got %d", opts.NumDonations, donations)
	}
	if demo != 1 {
		t.Fatalf("expected one demo user, got %d", demo)
	}
}

func TestSeed_AppendKeepsSingleDemoUser(t *testing.T) {
	db := openTestDB(t)
	opts := testOptions()
	opts.NumDonations = 2

	if _, err := Seed(context.Background(), db, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	opts.RandSeed = 43
	if _, err := Seed(context.Background(), db, opts); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var demo int64
	db.Model(&models.User{}).Where("username = ?", "demo").Count(&demo)
	if demo != 1 {
		t.Fatalf("expected one demo user, got %d", demo)
	}
}

func TestSeed_TooFewUsers(t *testing.T) {
	db := openTestDB(t)
	opts := testOptions()
	opts.NumUsers = 1

	summary, err := Seed(context.Background(), db, opts)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if summary.Donations != 0 {
		t.Fatalf("expected no donations with a single user, got %d", summary.Donations)
	}
}

func TestConflict(t *testing.T) {
	if !conflict(models.NewCapacityReachedError(1, 5)) {
		t.Fatal("capacity reached should be tolerated")
	}
	if conflict(models.NewNotFoundError("Donation", 1)) {
		t.Fatal("not found should not be tolerated")
	}
}
