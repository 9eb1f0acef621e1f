package pipeline

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"gorm.io/gorm"
)

// Label bands, inclusive upper bound: a score exactly on a boundary belongs
// to the lower (better) band.
var labelBands = []struct {
	max   float64
	label string
}{
	{20, "Well Served"},
	{40, "Adequate"},
	{60, "Moderate Shortage"},
	{80, "Significant Shortage"},
	{100, "Severe Shortage"},
}

// PercentRanks computes the percentile rank of each value within its
// cohort: (members strictly below) / (cohort size - 1). Ties share a rank
// and a single-member cohort ranks 0. This matches the SQL PERCENT_RANK
// window function the scoring was originally defined with, and is stable
// under any monotonic rescaling of the inputs.
func PercentRanks(values []float64) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n < 2 {
		return ranks
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	// Walk the sorted order; tied runs all take the rank of the run's first
	// element.
	below := 0
	for i := 0; i < n; {
		j := i
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		for k := i; k < j; k++ {
			ranks[order[k]] = float64(below) / float64(n-1)
		}
		below += j - i
		i = j
	}
	return ranks
}

// Composite combines component scores into the weighted dearth score,
// clamped to [0, 100]. A missing component contributes the neutral value 50.
func Composite(density, drivetime *float64, weightDensity, weightDrivetime float64) float64 {
	d, dt := 50.0, 50.0
	if density != nil {
		d = *density
	}
	if drivetime != nil {
		dt = *drivetime
	}

	score := weightDensity*d + weightDrivetime*dt
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Label assigns the ordinal shortage band for a dearth score.
func Label(score float64) string {
	for _, band := range labelBands {
		if score <= band.max {
			return band.label
		}
	}
	return labelBands[len(labelBands)-1].label
}

// ComputeScores fills in component scores, composites, and labels for every
// metric row, then refreshes the county summary so readers observe the new
// snapshot atomically. Percentile cohorts are per (geo_type, specialty);
// ranks are never compared across specialties or across geography types.
func ComputeScores(gdb *gorm.DB, cfg config.Config) (int, error) {
	var rows []scores.DearthScore
	if err := gdb.Order("id").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("loading metric rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	cohorts := make(map[string][]int)
	for i, row := range rows {
		key := row.GeoType + "|" + row.SpecialtyCode
		cohorts[key] = append(cohorts[key], i)
	}

	for _, members := range cohorts {
		densities := make([]float64, len(members))
		driveTimes := make([]float64, len(members))
		for j, i := range members {
			densities[j] = rows[i].ProviderDensity
			driveTimes[j] = rows[i].DriveTimeMinutes
		}

		densityRanks := PercentRanks(densities)
		driveRanks := PercentRanks(driveTimes)

		for j, i := range members {
			// Lower density is worse; higher drive time is worse.
			densityScore := 100.0 * (1.0 - densityRanks[j])
			drivetimeScore := 100.0 * driveRanks[j]
			rows[i].DensityScore = &densityScore
			rows[i].DrivetimeScore = &drivetimeScore

			composite := Composite(rows[i].DensityScore, rows[i].DrivetimeScore,
				cfg.WeightDensity, cfg.WeightDrivetime)
			rows[i].DearthScore = &composite
			rows[i].DearthLabel = Label(composite)
		}
	}

	now := time.Now().UTC()
	if err := gdb.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Model(&scores.DearthScore{}).
				Where("id = ?", rows[i].ID).
				Updates(map[string]interface{}{
					"density_score":   *rows[i].DensityScore,
					"drivetime_score": *rows[i].DrivetimeScore,
					"dearth_score":    *rows[i].DearthScore,
					"dearth_label":    rows[i].DearthLabel,
					"computed_at":     now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("writing scores: %w", err)
	}

	if err := scores.RefreshSummary(gdb); err != nil {
		return len(rows), err
	}

	logScoreDistribution(gdb)
	return len(rows), nil
}

// logScoreDistribution prints the label histogram, the operator's sanity
// check after a run. Failures here are cosmetic.
func logScoreDistribution(gdb *gorm.DB) {
	type bucket struct {
		DearthLabel string
		Count       int64
	}
	var buckets []bucket
	if err := gdb.Model(&scores.DearthScore{}).
		Select("dearth_label, COUNT(*) AS count").
		Group("dearth_label").
		Order("MIN(dearth_score)").
		Scan(&buckets).Error; err != nil {
		log.Printf("[scoring] could not read score distribution: %v", err)
		return
	}
	log.Println("[scoring] score distribution:")
	for _, b := range buckets {
		log.Printf("[scoring]   %s: %d", b.DearthLabel, b.Count)
	}
}
