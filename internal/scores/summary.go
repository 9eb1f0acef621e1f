package scores

import (
	"fmt"

	"gorm.io/gorm"
)

// RefreshSummary rebuilds the county summary view. Downstream readers
// observe either the old snapshot or the new one, never a mix.
func RefreshSummary(gdb *gorm.DB) error {
	if err := gdb.Exec(`REFRESH MATERIALIZED VIEW dearth.county_dearth_summary`).Error; err != nil {
		return fmt.Errorf("refreshing county_dearth_summary: %w", err)
	}
	return nil
}
