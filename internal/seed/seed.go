package seed

import (
	"fmt"
	"log"

	"quill/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	ShouldClean  bool
	DryRun       bool
	SkipBcrypt   bool
	// MaxDays spreads generated created_at timestamps over this many days.
	MaxDays int
}

// Run populates the database with demo users and posts. With ShouldClean it
// wipes existing rows first; with DryRun nothing is written.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.PostsPerUser <= 0 {
		opts.PostsPerUser = 5
	}

	if opts.ShouldClean && !opts.DryRun {
		if err := Clean(db); err != nil {
			return fmt.Errorf("cleaning before seed: %w", err)
		}
	}

	factory := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("seeding user %d: %w", i, err)
		}
		users = append(users, user)
	}

	posts := make([]*models.Post, 0, opts.NumUsers*opts.PostsPerUser)
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			posts = append(posts, factory.BuildPost(user))
		}
	}
	if err := factory.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("seeding posts: %w", err)
	}

	log.Printf("Seeded %d users and %d posts", len(users), len(posts))
	return nil
}

// Clean removes all seeded rows. Deletion order respects the posts->users
// foreign key.
func Clean(db *gorm.DB) error {
	if err := db.Unscoped().Where("1 = 1").Delete(&models.Post{}).Error; err != nil {
		return err
	}
	return db.Unscoped().Where("1 = 1").Delete(&models.User{}).Error
}
