// Package bootstrap establishes runtime dependencies (database, cache) and
// performs explicit development-time seeding. Keeping this out of the server
// package lets commands and tests share the same startup path.
package bootstrap

import (
	"fmt"
	"log"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates the database with generated users and posts.
	SeedDemoData bool
}

// devLoginEmail is the well-known development account created outside
// production so the frontend always has something to log in with.
const (
	devLoginEmail    = "demo@quill.dev"
	devLoginPassword = "password123"
)

// InitRuntime connects to DB and Redis and optionally runs demo seeding.
// A nil Redis client is a valid outcome; the app degrades to uncached reads.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if !cfg.IsProduction() {
		if err := ensureDevLogin(db); err != nil {
			return nil, nil, fmt.Errorf("failed to bootstrap development login: %w", err)
		}
	}

	if opts.SeedDemoData {
		if err := seed.Run(db, seed.Options{}); err != nil {
			return nil, nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevLogin creates the well-known development account if it is missing.
func ensureDevLogin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", devLoginEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(devLoginPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:     "Demo Author",
		Email:    devLoginEmail,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}

	log.Printf("Created development login %s", devLoginEmail)
	return nil
}
