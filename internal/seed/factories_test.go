package seed

import (
	"testing"
	"time"

	"sharekindness/internal/models"
	"sharekindness/internal/service"
)

func TestBuildDonation_Plausible(t *testing.T) {
	f := NewFactory(nil, Options{RandSeed: 7})

	for i := 0; i < 50; i++ {
		in := f.BuildDonation()
		if !in.Category.Valid() {
			t.Fatalf("unknown category %q", in.Category)
		}
		if in.Quantity < 1 || in.Quantity > 10 {
			t.Fatalf("quantity out of range: %d", in.Quantity)
		}
		found := false
		for _, name := range itemNames[in.Category] {
			if name == in.ItemName {
				found = true
			}
		}
		if !found {
			t.Fatalf("item %q does not belong to %s", in.ItemName, in.Category)
		}
	}
}

func TestBuildDonation_Overrides(t *testing.T) {
	f := NewFactory(nil, Options{RandSeed: 7})
	in := f.BuildDonation(func(d *service.DonationInput) {
		d.Category = models.CategoryBooks
		d.Quantity = 42
	})
	if in.Category != models.CategoryBooks || in.Quantity != 42 {
		t.Fatalf("overrides not applied: %+v", in)
	}
}

func TestCreatedAt_WithinMaxDays(t *testing.T) {
	f := NewFactory(nil, Options{RandSeed: 3, MaxDays: 30})
	for i := 0; i < 100; i++ {
		ts := f.CreatedAt()
		if ts.After(time.Now()) {
			t.Fatalf("created_at in the future: %v", ts)
		}
		if time.Since(ts) > 31*24*time.Hour {
			t.Fatalf("created_at too old: %v", ts)
		}
	}
}

func TestPick_ExcludesAndCaps(t *testing.T) {
	f := NewFactory(nil, Options{RandSeed: 11})
	pool := []*models.User{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	picked := f.Pick(pool, 10, 2)
	if len(picked) != 3 {
		t.Fatalf("expected 3 users, got %d", len(picked))
	}
	seen := map[uint]bool{}
	for _, u := range picked {
		if u.ID == 2 {
			t.Fatal("excluded user was picked")
		}
		if seen[u.ID] {
			t.Fatalf("user %d picked twice", u.ID)
		}
		seen[u.ID] = true
	}

	if got := f.Pick(pool, 0, 0); len(got) != 0 {
		t.Fatalf("expected no users, got %d", len(got))
	}
	// the pool itself must not be reordered
	for i, u := range pool {
		if u.ID != uint(i+1) {
			t.Fatalf("pool mutated at %d: %d", i, u.ID)
		}
	}
}

func TestCreateUser_SkipBcrypt(t *testing.T) {
	db := openTestDB(t)
	f := NewFactory(db, Options{RandSeed: 5, SkipBcrypt: true})

	user, err := f.CreateUser(func(u *models.User) { u.City = "Portland" })
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected persisted user")
	}
	if user.Password != DefaultPassword {
		t.Fatalf("expected plain password in fast mode, got %q", user.Password)
	}
	if user.City != "Portland" {
		t.Fatalf("override not applied: %q", user.City)
	}
}
