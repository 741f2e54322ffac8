// Package bootstrap wires the process-level runtime: database, Redis and demo data.
package bootstrap

import (
	"errors"
	"fmt"

	"scribble/internal/cache"
	"scribble/internal/config"
	"scribble/internal/database"
	"scribble/internal/middleware"
	"scribble/internal/models"
	"scribble/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the built-in groups.
	SeedGroups bool
	// SeedDemo fills an empty development database with fake content.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally runs built-in seeding.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	// Connect DB
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Seed(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Seed runs the seeding steps selected by opts against db.
func Seed(cfg *config.Config, db *gorm.DB, opts Options) error {
	if opts.SeedGroups {
		if _, err := seed.Groups(db); err != nil {
			return fmt.Errorf("failed to seed built-in groups: %w", err)
		}
	}
	if opts.SeedDemo {
		if err := seedDemoIfEmpty(cfg, db); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return nil
}

var errProductionSeed = errors.New("demo data is never seeded in production")

func seedDemoIfEmpty(cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return errProductionSeed
	}
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("demo seed skipped, database already has users", "users", users)
		return nil
	}
	return seed.Seed(db, seed.DefaultOptions())
}
