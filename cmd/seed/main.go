// Command seed populates the database with demo users and posts.
package main

import (
	"flag"
	"log"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	postsPerUser := flag.Int("posts-per-user", 5, "Number of posts to create per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plaintext demo passwords (fast, dev only)")
	maxDays := flag.Int("max-days", 90, "Spread post timestamps over this many days")
	flag.Parse()

	log.Printf("Seeding: %d users, %d posts each, clean=%v dry-run=%v",
		*numUsers, *postsPerUser, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitMiddleware(cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Run(db, seed.Options{
		NumUsers:     *numUsers,
		PostsPerUser: *postsPerUser,
		ShouldClean:  *shouldClean,
		DryRun:       *dryRun,
		SkipBcrypt:   *skipBcrypt,
		MaxDays:      *maxDays,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
