package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"gorm.io/gorm"
)

// Router is the routing-service surface the drive-time stage needs.
// *routing.Client satisfies it.
type Router interface {
	// Ping reports whether the routing service is reachable and answering.
	Ping(ctx context.Context) bool
	// Route returns the driving duration in seconds between two points.
	Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (float64, error)
}

// DriveTimeReport summarizes one resolver run.
type DriveTimeReport struct {
	// Skipped is true when the liveness probe failed and the stage left
	// every row on its proxy value.
	Skipped   bool
	Routed    int
	Estimated int
}

type routeJob struct {
	rowID      uint64
	fromLat    float64
	fromLon    float64
	toLat      float64
	toLon      float64
	proxyMiles float64
}

type routeResult struct {
	rowID     uint64
	minutes   float64
	estimated bool
}

// ResolveDriveTimes replaces proxy drive times with routed ones wherever a
// nearest provider is known. If the routing service fails its liveness
// probe, the whole stage is skipped and every row keeps its proxy value.
// Results commit one specialty at a time so partial progress survives a
// later failure.
func ResolveDriveTimes(ctx context.Context, gdb *gorm.DB, router Router, cfg config.Config) (DriveTimeReport, error) {
	var report DriveTimeReport

	if !router.Ping(ctx) {
		log.Printf("[drivetime] WARNING: routing service not reachable at %s; keeping proxy drive times", cfg.OSRMURL)
		report.Skipped = true
		return report, nil
	}
	log.Printf("[drivetime] routing service connected at %s", cfg.OSRMURL)

	origins, err := loadRegionCentroids(gdb)
	if err != nil {
		return report, err
	}

	var specialties []string
	if err := gdb.Model(&scores.DearthScore{}).
		Distinct("specialty_code").
		Order("specialty_code").
		Pluck("specialty_code", &specialties).Error; err != nil {
		return report, fmt.Errorf("listing specialties: %w", err)
	}

	for i, spec := range specialties {
		jobs, err := collectRouteJobs(gdb, spec, origins)
		if err != nil {
			return report, err
		}
		if len(jobs) == 0 {
			continue
		}

		results := runRoutePool(ctx, router, jobs, cfg)

		routed, estimated := 0, 0
		for _, res := range results {
			if res.estimated {
				estimated++
			} else {
				routed++
			}
		}

		if err := commitRouteResults(gdb, results); err != nil {
			return report, fmt.Errorf("committing drive times for %s: %w", spec, err)
		}
		report.Routed += routed
		report.Estimated += estimated

		log.Printf("[drivetime] [%d/%d] %s: %d routed, %d estimated",
			i+1, len(specialties), spec, routed, estimated)
	}

	return report, nil
}

// loadRegionCentroids maps geo_type:geo_id to the region centroid routes
// originate from.
func loadRegionCentroids(gdb *gorm.DB) (map[string][2]float64, error) {
	origins := make(map[string][2]float64)

	var counties []catalog.County
	if err := gdb.Find(&counties).Error; err != nil {
		return nil, fmt.Errorf("loading county centroids: %w", err)
	}
	for _, c := range counties {
		origins[scores.GeoTypeCounty+":"+c.FIPS] = [2]float64{c.Lat, c.Lon}
	}

	var zips []catalog.ZipArea
	if err := gdb.Find(&zips).Error; err != nil {
		return nil, fmt.Errorf("loading zip centroids: %w", err)
	}
	for _, z := range zips {
		origins[scores.GeoTypeZipArea+":"+z.ZCTA] = [2]float64{z.Lat, z.Lon}
	}

	return origins, nil
}

// collectRouteJobs gathers the rows for one specialty that have a resolved
// nearest provider. Sentinel rows have no coordinates and are excluded.
func collectRouteJobs(gdb *gorm.DB, specialty string, origins map[string][2]float64) ([]routeJob, error) {
	var rows []scores.DearthScore
	if err := gdb.
		Where("specialty_code = ? AND nearest_provider_lat IS NOT NULL AND nearest_provider_lon IS NOT NULL", specialty).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("collecting route rows for %s: %w", specialty, err)
	}

	jobs := make([]routeJob, 0, len(rows))
	for _, row := range rows {
		origin, ok := origins[row.GeoType+":"+row.GeoID]
		if !ok {
			continue
		}
		jobs = append(jobs, routeJob{
			rowID:      row.ID,
			fromLat:    origin[0],
			fromLon:    origin[1],
			toLat:      *row.NearestProviderLat,
			toLon:      *row.NearestProviderLon,
			proxyMiles: row.NearestDistanceMiles,
		})
	}
	return jobs, nil
}

// runRoutePool dispatches jobs to a bounded worker pool. Every job yields
// exactly one result: a routed duration, or the proxy fallback flagged as
// estimated.
func runRoutePool(ctx context.Context, router Router, jobs []routeJob, cfg config.Config) []routeResult {
	workers := cfg.RouteWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan routeJob)
	resultCh := make(chan routeResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- routeOne(ctx, router, job, cfg.ProxyFactor)
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(resultCh)

	results := make([]routeResult, 0, len(jobs))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// routeOne resolves a single region-to-provider pair. Any failure falls
// back to the distance proxy; the pair never yields zero or two outcomes.
func routeOne(ctx context.Context, router Router, job routeJob, proxyFactor float64) routeResult {
	seconds, err := router.Route(ctx, job.fromLat, job.fromLon, job.toLat, job.toLon)
	if err != nil {
		return routeResult{
			rowID:     job.rowID,
			minutes:   job.proxyMiles * proxyFactor,
			estimated: true,
		}
	}
	return routeResult{
		rowID:     job.rowID,
		minutes:   seconds / 60.0,
		estimated: false,
	}
}

// commitRouteResults applies one specialty's results as a single batch.
func commitRouteResults(gdb *gorm.DB, results []routeResult) error {
	now := time.Now().UTC()
	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, res := range results {
			if err := tx.Model(&scores.DearthScore{}).
				Where("id = ?", res.rowID).
				Updates(map[string]interface{}{
					"drive_time_minutes":      res.minutes,
					"drive_time_is_estimated": res.estimated,
					"computed_at":             now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
