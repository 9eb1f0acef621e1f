package scores

import (
	"log"

	"github.com/DearthMap/DM-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "dearth"); err != nil {
		log.Fatal("Failed to ensure schema dearth: ", err)
	}

	if err := db.DB.AutoMigrate(&DearthScore{}); err != nil {
		log.Fatal("Failed to auto-migrate dearth_scores: ", err)
	}

	// Read-optimized county browse surface. Refreshed by the scoring stage
	// after every run so readers always see one consistent snapshot.
	if err := db.DB.Exec(`
		CREATE MATERIALIZED VIEW IF NOT EXISTS dearth.county_dearth_summary AS
		SELECT
			c.fips,
			c.name,
			c.state_abbr,
			c.population,
			ds.specialty_code,
			ds.provider_count,
			ds.provider_density,
			ds.drive_time_minutes,
			ds.drive_time_is_estimated,
			ds.dearth_score,
			ds.dearth_label
		FROM dearth.counties c
		JOIN dearth.dearth_scores ds
			ON ds.geo_type = 'county' AND ds.geo_id = c.fips;
	`).Error; err != nil {
		log.Fatal("Failed to create county_dearth_summary: ", err)
	}

	log.Println("Scores module initialized")
}
