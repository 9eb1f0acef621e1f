package pipeline_test

import (
	"os"
	"testing"
	"time"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/DearthMap/DM-Backend/internal/db"
	"github.com/DearthMap/DM-Backend/internal/pipeline"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from
	// internal/pipeline/).
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		// No database available. Skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true

	// Set up tables (idempotent), matching production setup in main.go.
	catalog.Init()
	scores.Init()

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

func integrationConfig() config.Config {
	return config.Config{
		ProxyFactor:     config.DefaultProxyFactor,
		WeightDensity:   config.DefaultWeightDensity,
		WeightDrivetime: config.DefaultWeightDrivetime,
		RouteWorkers:    config.DefaultRouteWorkers,
		WaitTimeDays:    config.DefaultWaitTimeDays,
	}
}

func testVersion() string {
	return "itest_" + uuid.New().String()[:8]
}

// A rerun with a changed region and provider set must fully replace the
// previous run's rows: nothing tagged with the old version survives the
// clear, and the table holds exactly regions x specialties rows afterward.
func TestCommitMetricsRerunLeavesNoOrphans(t *testing.T) {
	requireDB(t)

	cfg := integrationConfig()
	now := time.Now().UTC()

	firstVersion := testVersion()
	secondVersion := testVersion()
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM dearth.dearth_scores WHERE data_version IN (?, ?)`,
			firstVersion, secondVersion)
	})

	first := pipeline.BuildMetrics(&pipeline.Snapshot{
		Regions: []pipeline.Region{
			{GeoType: scores.GeoTypeCounty, ID: "00901", Lat: 33.0, Lon: -90.0, Population: 10000},
			{GeoType: scores.GeoTypeCounty, ID: "00903", Lat: 34.0, Lon: -91.0, Population: 20000},
			{GeoType: scores.GeoTypeCounty, ID: "00905", Lat: 35.0, Lon: -92.0, Population: 5000},
		},
		Specialties: []string{"cardiology", "primary_care"},
		Providers: []pipeline.ProviderPoint{
			{Lat: 33.01, Lon: -90.01, Zip: "99901", CountyFIPS: "00901",
				Specialties: []string{"primary_care"}, Active: true},
		},
	}, cfg, firstVersion, now)
	if _, err := pipeline.CommitMetrics(db.DB, first); err != nil {
		t.Fatalf("first CommitMetrics: %v", err)
	}

	// Rerun with region 00905 gone and a different provider set.
	second := pipeline.BuildMetrics(&pipeline.Snapshot{
		Regions: []pipeline.Region{
			{GeoType: scores.GeoTypeCounty, ID: "00901", Lat: 33.0, Lon: -90.0, Population: 10000},
			{GeoType: scores.GeoTypeCounty, ID: "00903", Lat: 34.0, Lon: -91.0, Population: 20000},
		},
		Specialties: []string{"cardiology", "primary_care"},
		Providers: []pipeline.ProviderPoint{
			{Lat: 34.02, Lon: -91.02, Zip: "99903", CountyFIPS: "00903",
				Specialties: []string{"cardiology"}, Active: true},
		},
	}, cfg, secondVersion, now)
	inserted, err := pipeline.CommitMetrics(db.DB, second)
	if err != nil {
		t.Fatalf("second CommitMetrics: %v", err)
	}
	if inserted != 4 {
		t.Errorf("inserted = %d, want 2 regions x 2 specialties = 4", inserted)
	}

	var stale int64
	if err := db.DB.Model(&scores.DearthScore{}).
		Where("data_version = ?", firstVersion).
		Count(&stale).Error; err != nil {
		t.Fatalf("counting stale rows: %v", err)
	}
	if stale != 0 {
		t.Errorf("%d rows from the first run survived the rerun", stale)
	}

	var total int64
	if err := db.DB.Model(&scores.DearthScore{}).Count(&total).Error; err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if total != 4 {
		t.Errorf("table holds %d rows after rerun, want 4", total)
	}
}

// Each specialty commits in its own transaction. A batch that fails the
// unique (geo_type, geo_id, specialty_code) index must roll back whole
// without touching the specialties committed before it.
func TestCommitMetricsSpecialtyCommitsAreIndependent(t *testing.T) {
	requireDB(t)

	version := testVersion()
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM dearth.dearth_scores WHERE data_version = ?`, version)
	})

	now := time.Now().UTC()
	base := scores.DearthScore{
		GeoType:              scores.GeoTypeCounty,
		NearestDistanceMiles: scores.Sentinel,
		AvgDistanceTop3Miles: scores.Sentinel,
		DriveTimeMinutes:     scores.Sentinel * config.DefaultProxyFactor,
		DriveTimeIsEstimated: true,
		DataVersion:          version,
		ComputedAt:           now,
	}
	row := func(geoID, specialty string) scores.DearthScore {
		r := base
		r.GeoID = geoID
		r.SpecialtyCode = specialty
		return r
	}

	rows := []scores.DearthScore{
		row("00901", "cardiology"),
		row("00903", "cardiology"),
		row("00901", "neurology"),
		row("00901", "neurology"), // duplicate key, fails the neurology batch
	}

	inserted, err := pipeline.CommitMetrics(db.DB, rows)
	if err == nil {
		t.Fatal("expected a duplicate-key error from the neurology batch")
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want the 2 cardiology rows", inserted)
	}

	var cardiology, neurology int64
	if err := db.DB.Model(&scores.DearthScore{}).
		Where("data_version = ? AND specialty_code = ?", version, "cardiology").
		Count(&cardiology).Error; err != nil {
		t.Fatalf("counting cardiology rows: %v", err)
	}
	if cardiology != 2 {
		t.Errorf("cardiology rows = %d, want 2 (committed batch intact)", cardiology)
	}
	if err := db.DB.Model(&scores.DearthScore{}).
		Where("data_version = ? AND specialty_code = ?", version, "neurology").
		Count(&neurology).Error; err != nil {
		t.Fatalf("counting neurology rows: %v", err)
	}
	if neurology != 0 {
		t.Errorf("neurology rows = %d, want 0 (failed batch rolled back)", neurology)
	}
}
