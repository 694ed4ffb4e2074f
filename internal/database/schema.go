package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sharekindness/internal/config"
	"sharekindness/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPolicy says which schema mechanisms run at startup.
type SchemaPolicy struct {
	Mode           string
	RunSQL         bool
	RunAutoMigrate bool
}

// SchemaStatus reports the policy and pending SQL migrations.
type SchemaStatus struct {
	SchemaPolicy
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

// ResolveSchemaPolicy maps the configured mode and environment to a policy.
// Hybrid runs SQL migrations everywhere and AutoMigrate only outside
// production-like environments; auto in production requires an explicit opt-in.
func ResolveSchemaPolicy(cfg *config.Config) (SchemaPolicy, error) {
	mode := normalizedSchemaMode(cfg)
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return SchemaPolicy{Mode: mode, RunSQL: true}, nil
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPolicy{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return SchemaPolicy{Mode: mode, RunAutoMigrate: true}, nil
	case SchemaModeHybrid:
		return SchemaPolicy{Mode: mode, RunSQL: true, RunAutoMigrate: !prodLike}, nil
	default:
		return SchemaPolicy{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate runs GORM AutoMigrate for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date according to the policy.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	policy, err := ResolveSchemaPolicy(cfg)
	if err != nil {
		return err
	}

	if policy.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if policy.RunAutoMigrate {
		if policy.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", policy.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

// GetSchemaStatus reports what ApplySchema would do without doing it.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	policy, err := ResolveSchemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{SchemaPolicy: policy, Environment: cfg.Env}
	if !policy.RunSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}

	return status, nil
}
