// Package bootstrap connects the runtime dependencies shared by the server
// and the operational commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"circle/internal/cache"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/middleware"
	"circle/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates an empty development database.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables rate limiting.
	r := cache.Connect(cfg.RedisURL)

	if opts.SeedDemoData {
		if err := seedIfEmpty(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed in %s", cfg.Env)
	}
	var users int64
	if err := db.WithContext(ctx).Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("skipping demo seed, users already present", slog.Int64("users", users))
		return nil
	}

	opts := seed.DefaultOptions()
	opts.ShouldClean = false
	_, err := seed.NewSeeder(db, 0).Run(ctx, opts)
	return err
}
