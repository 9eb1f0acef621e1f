package catalog

import (
	"log"

	"github.com/DearthMap/DM-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "dearth"); err != nil {
		log.Fatal("Failed to ensure schema dearth: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(
		&County{},
		&ZipArea{},
		&Specialty{},
		&Provider{},
	); err != nil {
		log.Fatal("Failed to auto-migrate catalog tables: ", err)
	}

	// GIN index so specialty-membership filters don't scan every provider.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_providers_specialties
		ON dearth.providers USING GIN (specialties);
	`).Error; err != nil {
		log.Fatal("Failed to create idx_providers_specialties: ", err)
	}

	log.Println("Catalog module initialized")
}
