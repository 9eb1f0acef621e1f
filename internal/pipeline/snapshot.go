// Package pipeline implements the staged dearth-score computation: metrics
// aggregation, drive-time resolution, and percentile scoring, in that order.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"gorm.io/gorm"
)

// Region is one scoring unit: a county or a ZCTA-derived area.
type Region struct {
	GeoType    string
	ID         string
	Lat        float64
	Lon        float64
	Population int64
}

// ProviderPoint is an active provider with its region memberships resolved.
// CountyFIPS is empty when the provider's ZIP has no crosswalk entry; such
// providers still participate in distance metrics, just not county counts.
type ProviderPoint struct {
	Lat         float64
	Lon         float64
	Zip         string
	CountyFIPS  string
	Specialties []string
	Active      bool
}

// Snapshot is the full read-only input of a pipeline run. The stages are
// pure functions over it; nothing in it is mutated mid-run.
type Snapshot struct {
	Regions     []Region
	Specialties []string
	Providers   []ProviderPoint
}

// LoadSnapshot reads the region, specialty, and provider sets from the
// store and resolves provider-to-county membership through the ZIP
// crosswalk.
func LoadSnapshot(gdb *gorm.DB, includeZipAreas bool) (*Snapshot, error) {
	var counties []catalog.County
	if err := gdb.Order("fips").Find(&counties).Error; err != nil {
		return nil, fmt.Errorf("loading counties: %w", err)
	}

	var zips []catalog.ZipArea
	if err := gdb.Order("zcta").Find(&zips).Error; err != nil {
		return nil, fmt.Errorf("loading zip areas: %w", err)
	}

	var specialties []catalog.Specialty
	if err := gdb.Order("code").Find(&specialties).Error; err != nil {
		return nil, fmt.Errorf("loading specialties: %w", err)
	}

	var providers []catalog.Provider
	if err := gdb.Where("is_active = ?", true).Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("loading providers: %w", err)
	}

	countyByZip := make(map[string]string, len(zips))
	for _, z := range zips {
		countyByZip[z.ZCTA] = z.CountyFIPS
	}

	snap := &Snapshot{}

	for _, c := range counties {
		snap.Regions = append(snap.Regions, Region{
			GeoType:    scores.GeoTypeCounty,
			ID:         c.FIPS,
			Lat:        c.Lat,
			Lon:        c.Lon,
			Population: c.Population,
		})
	}
	if includeZipAreas {
		for _, z := range zips {
			snap.Regions = append(snap.Regions, Region{
				GeoType:    scores.GeoTypeZipArea,
				ID:         z.ZCTA,
				Lat:        z.Lat,
				Lon:        z.Lon,
				Population: z.Population,
			})
		}
	}

	for _, s := range specialties {
		snap.Specialties = append(snap.Specialties, s.Code)
	}
	sort.Strings(snap.Specialties)

	for _, p := range providers {
		snap.Providers = append(snap.Providers, ProviderPoint{
			Lat:         p.Lat,
			Lon:         p.Lon,
			Zip:         p.Zip,
			CountyFIPS:  countyByZip[p.Zip],
			Specialties: p.Specialties,
			Active:      p.IsActive,
		})
	}

	return snap, nil
}

// regionKey identifies a region within a run.
func (r Region) key() string {
	return r.GeoType + ":" + r.ID
}

// regionKeys returns the keys of every region this provider counts toward.
// Distance metrics ignore membership; they use raw coordinates.
func (p ProviderPoint) regionKeys() []string {
	var keys []string
	if p.CountyFIPS != "" {
		keys = append(keys, scores.GeoTypeCounty+":"+p.CountyFIPS)
	}
	if p.Zip != "" {
		keys = append(keys, scores.GeoTypeZipArea+":"+p.Zip)
	}
	return keys
}
