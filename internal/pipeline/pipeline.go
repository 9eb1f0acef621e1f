package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRunInProgress is returned when another pipeline run holds the lock.
var ErrRunInProgress = errors.New("another pipeline run is in progress")

// runLockKey is the advisory-lock key serializing pipeline runs. The
// scoring stage assumes a stable, fully materialized metrics snapshot, so
// two runs must never interleave.
const runLockKey = 792061

// Options control optional pipeline behavior for one run.
type Options struct {
	// SkipDriveTimes leaves every drive time on its proxy value without
	// probing the routing service.
	SkipDriveTimes bool
}

// Report is the per-stage outcome of a run.
type Report struct {
	Version    string
	MetricRows int
	DriveTime  DriveTimeReport
	ScoreRows  int
	Elapsed    time.Duration
}

// Run executes the full pipeline: metrics, drive times, scores. Stages run
// strictly in sequence; each consumes the committed output of its
// predecessor. The run holds a Postgres advisory lock for its duration.
func Run(ctx context.Context, gdb *gorm.DB, router Router, cfg config.Config, opts Options) (*Report, error) {
	report := &Report{
		Version: "run_" + uuid.New().String()[:8],
	}
	start := time.Now()

	// Advisory locks are session-scoped; pin one connection for the whole
	// run so the unlock reaches the session that locked.
	err := gdb.Connection(func(conn *gorm.DB) error {
		var locked bool
		if err := conn.Raw(`SELECT pg_try_advisory_lock(?)`, runLockKey).Scan(&locked).Error; err != nil {
			return fmt.Errorf("acquiring run lock: %w", err)
		}
		if !locked {
			return ErrRunInProgress
		}
		defer conn.Exec(`SELECT pg_advisory_unlock(?)`, runLockKey)

		return runStages(ctx, conn, router, cfg, opts, report)
	})
	if err != nil {
		return nil, err
	}

	report.Elapsed = time.Since(start)
	log.Printf("[pipeline] run %s complete in %s: %d metric rows, %d routed, %d estimated, %d scored",
		report.Version, report.Elapsed.Round(time.Second),
		report.MetricRows, report.DriveTime.Routed, report.DriveTime.Estimated, report.ScoreRows)
	return report, nil
}

func runStages(ctx context.Context, gdb *gorm.DB, router Router, cfg config.Config, opts Options, report *Report) error {
	log.Printf("[pipeline] run %s: computing provider metrics", report.Version)
	snap, err := LoadSnapshot(gdb, cfg.IncludeZipAreas)
	if err != nil {
		return err
	}
	log.Printf("[pipeline] snapshot: %d regions, %d specialties, %d active providers",
		len(snap.Regions), len(snap.Specialties), len(snap.Providers))

	rows := BuildMetrics(snap, cfg, report.Version, time.Now().UTC())
	inserted, err := CommitMetrics(gdb, rows)
	if err != nil {
		return err
	}
	report.MetricRows = inserted

	if opts.SkipDriveTimes || router == nil {
		log.Println("[pipeline] drive-time stage skipped; proxy values stand")
		report.DriveTime.Skipped = true
	} else {
		report.DriveTime, err = ResolveDriveTimes(ctx, gdb, router, cfg)
		if err != nil {
			return err
		}
	}

	log.Printf("[pipeline] run %s: computing dearth scores", report.Version)
	report.ScoreRows, err = ComputeScores(gdb, cfg)
	return err
}
