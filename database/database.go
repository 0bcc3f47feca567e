package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ideaboard/config"
)

var DB *gorm.DB

// Connect opens the catalog database. sqlite is the default so a desktop
// install needs no server; postgres is available for shared deployments.
func Connect(cfg *config.Config) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	default:
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database (%s): %v", cfg.DBDriver, err)
	}

	DB = db
	fmt.Printf("Database connected (%s)\n", cfg.DBDriver)
}
