// Package bootstrap wires runtime dependencies for the command binaries.
package bootstrap

import (
	"fmt"

	"photoshare/internal/cache"
	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Preset, when set, is applied after connecting.
	Preset *seed.Preset
	// Clean wipes existing rows before the preset runs.
	Clean bool
	Seed  seed.Options
}

// InitRuntime connects to the database and Redis and optionally seeds demo
// data. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.Preset != nil {
		if _, err := SeedDatabase(db, opts); err != nil {
			return nil, nil, err
		}
	}

	return db, r, nil
}

// SeedDatabase applies opts.Preset to db, clearing it first if asked.
func SeedDatabase(db *gorm.DB, opts Options) (seed.Result, error) {
	s := seed.NewSeeder(db, opts.Seed)
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return seed.Result{}, fmt.Errorf("seed cleanup failed: %w", err)
		}
	}
	res, err := s.Apply(opts.Preset)
	if err != nil {
		return res, fmt.Errorf("seeding failed: %w", err)
	}
	return res, nil
}
