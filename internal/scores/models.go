package scores

import "time"

// Sentinel marks a distance metric with no computable value (a specialty
// with zero active providers). Distinct from a real measurement of zero and
// never stored as NULL.
const Sentinel = 999.0

// Geography types a score row can be keyed by.
const (
	GeoTypeCounty  = "county"
	GeoTypeZipArea = "zipcode_area"
)

// DearthScore is one (geography, specialty) row. The metrics stage creates
// it, the drive-time stage refines it, and the scoring stage fills in the
// component and composite scores. Every pipeline run rebuilds the table
// wholesale.
type DearthScore struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	GeoType       string `gorm:"size:16;not null;uniqueIndex:idx_scores_geo_specialty,priority:1" json:"geo_type"`
	GeoID         string `gorm:"size:8;not null;uniqueIndex:idx_scores_geo_specialty,priority:2" json:"geo_id"`
	SpecialtyCode string `gorm:"size:32;not null;uniqueIndex:idx_scores_geo_specialty,priority:3;index" json:"specialty_code"`

	ProviderCount   int     `gorm:"not null" json:"provider_count"`
	ProviderDensity float64 `gorm:"not null" json:"provider_density"`

	NearestDistanceMiles float64 `gorm:"not null" json:"nearest_distance_miles"`
	AvgDistanceTop3Miles float64 `gorm:"not null" json:"avg_distance_top3_miles"`

	// Coordinates of the nearest provider, when one exists. The drive-time
	// stage routes from the region centroid to these.
	NearestProviderLat *float64 `json:"nearest_provider_lat,omitempty"`
	NearestProviderLon *float64 `json:"nearest_provider_lon,omitempty"`

	DriveTimeMinutes     float64 `gorm:"not null" json:"drive_time_minutes"`
	DriveTimeIsEstimated bool    `gorm:"not null;default:true" json:"drive_time_is_estimated"`

	WaitTimeDays float64 `json:"wait_time_days"`

	DensityScore   *float64 `json:"density_score,omitempty"`
	DrivetimeScore *float64 `json:"drivetime_score,omitempty"`
	DearthScore    *float64 `json:"dearth_score,omitempty"`
	DearthLabel    string   `json:"dearth_label,omitempty"`

	DataVersion string    `gorm:"size:32" json:"data_version"`
	ComputedAt  time.Time `json:"computed_at"`
}

func (DearthScore) TableName() string {
	return "dearth.dearth_scores"
}

// CountySummary is one row of the county_dearth_summary materialized view,
// the read-optimized surface the map and export endpoints serve from.
type CountySummary struct {
	FIPS            string   `json:"fips"`
	Name            string   `json:"name"`
	State           string   `json:"state"`
	Population      int64    `json:"population"`
	SpecialtyCode   string   `json:"specialty_code"`
	ProviderCount   int      `json:"provider_count"`
	ProviderDensity float64  `json:"provider_density"`
	DearthScore     *float64 `json:"dearth_score"`
	DearthLabel     string   `json:"dearth_label"`
}
