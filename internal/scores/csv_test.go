package scores

import (
	"strings"
	"testing"
)

func TestWriteSummaryCSV(t *testing.T) {
	score := 72.5
	rows := []CountySummary{
		{
			FIPS:            "30055",
			Name:            "McCone",
			State:           "MT",
			Population:      1664,
			SpecialtyCode:   "primary_care",
			ProviderCount:   0,
			ProviderDensity: 0,
			DearthScore:     &score,
			DearthLabel:     "Significant Shortage",
		},
		{
			FIPS:            "06075",
			Name:            "San Francisco",
			State:           "CA",
			Population:      873965,
			SpecialtyCode:   "primary_care",
			// no score yet
			ProviderCount:   412,
			ProviderDensity: 47.14,
		},
	}

	var sb strings.Builder
	if err := writeSummaryCSV(&sb, rows); err != nil {
		t.Fatalf("writeSummaryCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "fips,county,state,population,provider_count,provider_density,dearth_score,dearth_label" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "30055,McCone,MT,1664,0,0.00,72.5,Significant Shortage" {
		t.Errorf("unexpected scored row: %s", lines[1])
	}
	if lines[2] != "06075,San Francisco,CA,873965,412,47.14,," {
		t.Errorf("unexpected unscored row: %s", lines[2])
	}
}
