// Package bootstrap wires process-wide runtime dependencies.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sharekindness/internal/cache"
	"sharekindness/internal/config"
	"sharekindness/internal/database"
	"sharekindness/internal/middleware"
	"sharekindness/internal/models"
	"sharekindness/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty database with demo users and donations.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if _, err := database.ConnectRead(cfg); err != nil {
		middleware.Logger.Warn("read replica unavailable, reads use the primary", slog.String("error", err.Error()))
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := seedIfEmpty(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedIfEmpty only touches a database without users.
func seedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return fmt.Errorf("demo seeding is disabled in %s", cfg.Env)
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("Database already has users, skipping demo seed", slog.Int64("users", users))
		return nil
	}

	opts := seed.DefaultOptions()
	opts.RequestCapacity = cfg.RequestCapacity
	_, err := seed.Seed(ctx, db, opts)
	return err
}
