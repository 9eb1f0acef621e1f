package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// County is a Census county with its population-weighted centroid. Loaded by
// the ingestion tooling; read-only to the scoring pipeline.
type County struct {
	FIPS         string  `gorm:"primaryKey;size:5" json:"fips"`
	Name         string  `gorm:"not null" json:"name"`
	StateFIPS    string  `gorm:"size:2;index" json:"state_fips"`
	StateAbbr    string  `gorm:"size:2;index" json:"state"`
	StateName    string  `json:"state_name"`
	Population   int64   `json:"population"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	LandAreaSqMi float64 `json:"land_area_sqmi"`
}

func (County) TableName() string {
	return "dearth.counties"
}

// ZipArea is a ZCTA with its crosswalk to the containing county. Providers
// carry a ZIP; this is how they roll up to counties.
type ZipArea struct {
	ZCTA       string  `gorm:"primaryKey;size:5" json:"zcta"`
	CountyFIPS string  `gorm:"size:5;index" json:"county_fips"`
	StateAbbr  string  `gorm:"size:2" json:"state"`
	Population int64   `json:"population"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func (ZipArea) TableName() string {
	return "dearth.zipcodes"
}

// Specialty is a stable specialty code plus its display name.
type Specialty struct {
	Code string `gorm:"primaryKey;size:32" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

func (Specialty) TableName() string {
	return "dearth.specialties"
}

// Provider is a geocoded practitioner or facility from the NPI registry.
type Provider struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	NPI         string         `gorm:"size:10;uniqueIndex" json:"npi"`
	Name        string         `json:"name"`
	Zip         string         `gorm:"size:5;index" json:"zip"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	Specialties pq.StringArray `gorm:"type:text[]" json:"specialties"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	LoadedAt    time.Time      `json:"loaded_at"`
}

func (Provider) TableName() string {
	return "dearth.providers"
}
