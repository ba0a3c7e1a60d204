// Command migrate applies the schema to the configured database. Connect
// auto-migrates outside production; this command is the explicit path for
// production deploys.
package main

import (
	"log"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitMiddleware(cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration complete")
}
