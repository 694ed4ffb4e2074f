// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"sharekindness/internal/models"
	"sharekindness/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login password of every seeded user.
const DefaultPassword = "Password123!"

var itemNames = map[models.DonationCategory][]string{
	models.CategoryFood:        {"Canned soup", "Rice bags", "Baby formula", "Pasta boxes", "Fresh apples"},
	models.CategoryClothes:     {"Winter coats", "Kids jackets", "Wool sweaters", "School uniforms", "Rain ponchos"},
	models.CategoryShoes:       {"Running shoes", "Snow boots", "Kids sneakers", "Work boots"},
	models.CategoryBooks:       {"Picture books", "Textbooks", "Novels", "Cookbooks", "Atlases"},
	models.CategoryElectronics: {"Laptop", "Tablet", "Phone charger", "Desk lamp", "Headphones"},
	models.CategoryOther:       {"Blankets", "Toy bundle", "Kitchen set", "Stroller", "Board games"},
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// hashed once; bcrypt at DefaultCost is slow enough to dominate seeding
	password string
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed)}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.password == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.password = string(hash)
	}
	return f.password, nil
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.hashedPassword()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username := strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 999))
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    password,
		Bio:         f.faker.Sentence(10),
		City:        f.faker.City(),
		State:       f.faker.StateAbr(),
		PhoneNumber: f.faker.Numerify("##########"),
		IsVerified:  f.faker.Bool(),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildDonation returns the donor-facing fields of a plausible donation
// without persisting it. Donations go through the AllocationEngine.
func (f *Factory) BuildDonation(overrides ...func(*service.DonationInput)) service.DonationInput {
	category := models.DonationCategories[f.faker.Number(0, len(models.DonationCategories)-1)]
	names := itemNames[category]

	in := service.DonationInput{
		ItemName:    names[f.faker.Number(0, len(names)-1)],
		Description: f.faker.Sentence(12),
		Category:    category,
		Quantity:    f.faker.Number(1, 10),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
	}

	for _, override := range overrides {
		override(&in)
	}
	return in
}

// RequestComment returns a short note a recipient might attach.
func (f *Factory) RequestComment() string {
	return f.faker.Sentence(f.faker.Number(4, 12))
}

// CreatedAt returns a timestamp spread over the last opts.MaxDays days.
func (f *Factory) CreatedAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.faker.Number(0, maxDays-1)
	hoursBack := f.faker.Number(0, 23)
	minsBack := f.faker.Number(0, 59)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns n distinct users from pool, skipping exclude.
func (f *Factory) Pick(pool []*models.User, n int, exclude uint) []*models.User {
	candidates := make([]*models.User, 0, len(pool))
	for _, u := range pool {
		if u.ID != exclude {
			candidates = append(candidates, u)
		}
	}
	f.faker.ShuffleAnySlice(candidates)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}
