package database

import (
	"fmt"
	"log"

	"ideaboard/models"
)

func Migrate() {
	err := DB.AutoMigrate(
		&models.SessionRecord{},
		&models.Tag{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	fmt.Println("Migrations completed")
}
