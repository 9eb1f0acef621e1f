package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"github.com/DearthMap/DM-Backend/internal/spatial"
	"gorm.io/gorm"
)

// BuildMetrics produces exactly one metric row per (region, specialty)
// pair.
//
// Phase A fills counts and density for the full cross-product, with every
// distance metric on the sentinel and the drive time on the sentinel proxy.
// Phase B then, per specialty with at least one active provider, resolves
// nearest-provider distances and the top-3 mean, and replaces the drive-time
// proxy with one derived from the real nearest distance. A specialty with no
// active providers keeps its Phase A values: that is a defined no-data
// state, not an error.
func BuildMetrics(snap *Snapshot, cfg config.Config, version string, now time.Time) []scores.DearthScore {
	// Phase A: single pass over providers, then over the cross-product.
	regionKeys := make(map[string]struct{}, len(snap.Regions))
	for _, r := range snap.Regions {
		regionKeys[r.key()] = struct{}{}
	}

	countByRegionSpecialty := make(map[string]map[string]int)
	for _, p := range snap.Providers {
		if !p.Active {
			continue
		}
		for _, key := range p.regionKeys() {
			if _, ok := regionKeys[key]; !ok {
				continue
			}
			m := countByRegionSpecialty[key]
			if m == nil {
				m = make(map[string]int)
				countByRegionSpecialty[key] = m
			}
			for _, spec := range p.Specialties {
				m[spec]++
			}
		}
	}

	rows := make([]scores.DearthScore, 0, len(snap.Regions)*len(snap.Specialties))
	rowIndex := make(map[string]int, cap(rows))
	for _, r := range snap.Regions {
		for _, spec := range snap.Specialties {
			count := countByRegionSpecialty[r.key()][spec]
			density := 0.0
			if r.Population > 0 {
				density = float64(count) * 100000.0 / float64(r.Population)
			}
			rows = append(rows, scores.DearthScore{
				GeoType:              r.GeoType,
				GeoID:                r.ID,
				SpecialtyCode:        spec,
				ProviderCount:        count,
				ProviderDensity:      density,
				NearestDistanceMiles: scores.Sentinel,
				AvgDistanceTop3Miles: scores.Sentinel,
				DriveTimeMinutes:     scores.Sentinel * cfg.ProxyFactor,
				DriveTimeIsEstimated: true,
				WaitTimeDays:         cfg.WaitTimeDays,
				DataVersion:          version,
				ComputedAt:           now,
			})
			rowIndex[r.key()+"|"+spec] = len(rows) - 1
		}
	}

	// Phase B: per-specialty nearest-neighbor search over active providers.
	for _, spec := range snap.Specialties {
		var points []spatial.Point
		for _, p := range snap.Providers {
			if !p.Active || !hasSpecialty(p, spec) {
				continue
			}
			points = append(points, spatial.Point{Lat: p.Lat, Lon: p.Lon})
		}
		if len(points) == 0 {
			continue
		}

		index := spatial.NewIndex(points)
		log.Printf("[metrics] %s: indexed %d provider points", spec, index.Len())
		for _, r := range snap.Regions {
			neighbors := index.Nearest(spatial.Point{Lat: r.Lat, Lon: r.Lon}, 3)
			if len(neighbors) == 0 {
				continue
			}

			sum := 0.0
			for _, n := range neighbors {
				sum += n.Miles
			}

			row := &rows[rowIndex[r.key()+"|"+spec]]
			row.NearestDistanceMiles = neighbors[0].Miles
			row.AvgDistanceTop3Miles = sum / float64(len(neighbors))
			row.DriveTimeMinutes = neighbors[0].Miles * cfg.ProxyFactor
			nearest := points[neighbors[0].Index]
			row.NearestProviderLat = &nearest.Lat
			row.NearestProviderLon = &nearest.Lon
		}
	}

	return rows
}

func hasSpecialty(p ProviderPoint, code string) bool {
	for _, s := range p.Specialties {
		if s == code {
			return true
		}
	}
	return false
}

// CommitMetrics replaces the prior run's rows with the new ones. The clear
// happens first in its own transaction, then each specialty's rows commit
// independently so a failure in one specialty cannot corrupt another's
// results.
func CommitMetrics(gdb *gorm.DB, rows []scores.DearthScore) (int, error) {
	if err := gdb.Transaction(func(tx *gorm.DB) error {
		return tx.Exec(`DELETE FROM dearth.dearth_scores`).Error
	}); err != nil {
		return 0, fmt.Errorf("clearing prior metric rows: %w", err)
	}

	bySpecialty := make(map[string][]scores.DearthScore)
	var order []string
	for _, row := range rows {
		if _, seen := bySpecialty[row.SpecialtyCode]; !seen {
			order = append(order, row.SpecialtyCode)
		}
		bySpecialty[row.SpecialtyCode] = append(bySpecialty[row.SpecialtyCode], row)
	}

	inserted := 0
	for _, spec := range order {
		batch := bySpecialty[spec]
		if err := gdb.Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(batch, 500).Error
		}); err != nil {
			return inserted, fmt.Errorf("inserting metric rows for %s: %w", spec, err)
		}
		inserted += len(batch)
		log.Printf("[metrics] %s: %d rows", spec, len(batch))
	}

	return inserted, nil
}
