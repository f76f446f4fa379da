package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"circle/internal/config"
	"circle/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes for DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will do for one config.
type schemaPlan struct {
	mode   string
	env    string
	sql    bool
	auto   bool
	unsafe bool
}

// SchemaStatus describes what ApplySchema would do for a config.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// planSchema resolves the mode against the environment. Hybrid mode skips
// AutoMigrate in production and staging, where only reviewed SQL may change
// the friend request indexes and check constraints.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	p := schemaPlan{
		mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		env:  cfg.Env,
	}
	if p.mode == "" {
		p.mode = SchemaModeHybrid
	}

	var prodLike bool
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "production", "prod", "staging", "stage":
		prodLike = true
	}

	switch p.mode {
	case SchemaModeSQL:
		p.sql = true
	case SchemaModeHybrid:
		p.sql, p.auto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.auto = true
		p.unsafe = cfg.DBAutoMigrateAllowDestructive
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}
	return p, nil
}

func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	p, err := planSchema(cfg)
	return p.sql, p.auto, err
}

// AutoMigrate creates or updates every persistent table from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	p, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if p.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !p.auto {
		return nil
	}

	if p.unsafe {
		middleware.Logger.Warn("auto schema mode may drop or alter columns; review schema diffs before deploying",
			slog.String("env", p.env))
	}
	middleware.Logger.Info("running gorm automigrate", slog.String("mode", p.mode), slog.String("env", p.env))
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, for SQL modes, pending migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	p, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               p.mode,
		Environment:        p.env,
		WillRunSQL:         p.sql,
		WillRunAutoMigrate: p.auto,
	}
	if !p.sql {
		return status, nil
	}

	all, err := GetMigrations()
	if err != nil {
		return nil, err
	}
	if status.AppliedVersions, err = NewMigrationStore(db).GetAppliedMigrations(ctx); err != nil {
		return nil, err
	}
	for _, m := range all {
		if !containsVersion(status.AppliedVersions, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
