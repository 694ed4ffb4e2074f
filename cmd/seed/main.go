// Command main runs the database seeder for ShareKindness.
package main

import (
	"context"
	"flag"
	"log"

	"sharekindness/internal/config"
	"sharekindness/internal/database"
	"sharekindness/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numDonations := flag.Int("donations", defaults.NumDonations, "Number of donations to create")
	maxRequests := flag.Int("requests", defaults.MaxRequestsPerDonation, "Most requests filed per donation")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Store plain passwords (local throwaway databases only)")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible data (0 uses the clock)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a %s database", cfg.Env)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumDonations = *numDonations
	opts.MaxRequestsPerDonation = *maxRequests
	opts.RequestCapacity = cfg.RequestCapacity
	opts.ShouldClean = *shouldClean
	opts.SkipBcrypt = *fast
	opts.RandSeed = *randSeed

	summary, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d donations, %d requests (%d approved, %d claimed, %d withdrawn)",
		summary.Users, summary.Donations, summary.Requests, summary.Approved, summary.Claimed, summary.Withdrawn)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
