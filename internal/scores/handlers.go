package scores

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/db"
	"github.com/go-chi/chi/v5"
)

// ListSpecialties returns every scored specialty with its display name.
func ListSpecialties(w http.ResponseWriter, r *http.Request) {
	var specialties []catalog.Specialty
	if err := db.DB.Order("name").Find(&specialties).Error; err != nil {
		http.Error(w, "Failed to fetch specialties: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(specialties)
}

// ListCounties returns the county summary rows for one specialty, optionally
// filtered by state and score range, worst-served first.
func ListCounties(w http.ResponseWriter, r *http.Request) {
	specialty := r.URL.Query().Get("specialty")
	if specialty == "" {
		specialty = "primary_care"
	}

	query := db.DB.Table("dearth.county_dearth_summary").
		Select("fips, name, state_abbr AS state, population, specialty_code, provider_count, provider_density, dearth_score, dearth_label").
		Where("specialty_code = ?", specialty)

	if state := r.URL.Query().Get("state"); state != "" {
		query = query.Where("state_abbr = ?", state)
	}
	if minStr := r.URL.Query().Get("min_score"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			http.Error(w, "Invalid min_score", http.StatusBadRequest)
			return
		}
		query = query.Where("dearth_score >= ?", min)
	}
	if maxStr := r.URL.Query().Get("max_score"); maxStr != "" {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			http.Error(w, "Invalid max_score", http.StatusBadRequest)
			return
		}
		query = query.Where("dearth_score <= ?", max)
	}

	var rows []CountySummary
	if err := query.Order("dearth_score DESC NULLS LAST").Scan(&rows).Error; err != nil {
		http.Error(w, "Failed to fetch counties: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

type countyDetail struct {
	catalog.County
	Scores []specialtyScore `json:"scores"`
}

type specialtyScore struct {
	DearthScore
	SpecialtyName    string   `json:"specialty_name"`
	StateAvgScore    *float64 `json:"state_avg_score"`
	NationalAvgScore *float64 `json:"national_avg_score"`
}

// GetCounty returns one county with its per-specialty scores plus state and
// national average composites for context.
func GetCounty(w http.ResponseWriter, r *http.Request) {
	fips := chi.URLParam(r, "fips")

	var county catalog.County
	if err := db.DB.First(&county, "fips = ?", fips).Error; err != nil {
		http.Error(w, "County not found", http.StatusNotFound)
		return
	}

	var scoreRows []DearthScore
	if err := db.DB.
		Where("geo_type = ? AND geo_id = ?", GeoTypeCounty, fips).
		Order("specialty_code").
		Find(&scoreRows).Error; err != nil {
		http.Error(w, "Failed to fetch scores: "+err.Error(), http.StatusInternalServerError)
		return
	}

	stateAvgs, natlAvgs, err := averageScores(county.StateAbbr)
	if err != nil {
		http.Error(w, "Failed to fetch averages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	detail := countyDetail{County: county}
	for _, row := range scoreRows {
		detail.Scores = append(detail.Scores, specialtyScore{
			DearthScore:      row,
			SpecialtyName:    catalog.DisplayName(row.SpecialtyCode),
			StateAvgScore:    stateAvgs[row.SpecialtyCode],
			NationalAvgScore: natlAvgs[row.SpecialtyCode],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// averageScores returns per-specialty mean dearth scores for one state and
// for all counties nationally.
func averageScores(stateAbbr string) (map[string]*float64, map[string]*float64, error) {
	type avgRow struct {
		SpecialtyCode string
		AvgScore      *float64
	}

	var stateRows []avgRow
	if err := db.DB.Table("dearth.county_dearth_summary").
		Select("specialty_code, AVG(dearth_score) AS avg_score").
		Where("state_abbr = ?", stateAbbr).
		Group("specialty_code").
		Scan(&stateRows).Error; err != nil {
		return nil, nil, fmt.Errorf("state averages: %w", err)
	}

	var natlRows []avgRow
	if err := db.DB.Table("dearth.county_dearth_summary").
		Select("specialty_code, AVG(dearth_score) AS avg_score").
		Group("specialty_code").
		Scan(&natlRows).Error; err != nil {
		return nil, nil, fmt.Errorf("national averages: %w", err)
	}

	state := make(map[string]*float64, len(stateRows))
	for _, r := range stateRows {
		state[r.SpecialtyCode] = r.AvgScore
	}
	natl := make(map[string]*float64, len(natlRows))
	for _, r := range natlRows {
		natl[r.SpecialtyCode] = r.AvgScore
	}
	return state, natl, nil
}

// ExportCSV streams the county summary for one specialty as a CSV download.
func ExportCSV(w http.ResponseWriter, r *http.Request) {
	specialty := r.URL.Query().Get("specialty")
	if specialty == "" {
		specialty = "primary_care"
	}

	var rows []CountySummary
	if err := db.DB.Table("dearth.county_dearth_summary").
		Select("fips, name, state_abbr AS state, population, specialty_code, provider_count, provider_density, dearth_score, dearth_label").
		Where("specialty_code = ?", specialty).
		Order("dearth_score DESC NULLS LAST").
		Scan(&rows).Error; err != nil {
		http.Error(w, "Failed to fetch export rows: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="dearth_%s.csv"`, specialty))

	if err := writeSummaryCSV(w, rows); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}

// writeSummaryCSV writes summary rows in the export column order.
func writeSummaryCSV(w io.Writer, rows []CountySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"fips", "county", "state", "population",
		"provider_count", "provider_density", "dearth_score", "dearth_label",
	}); err != nil {
		return err
	}

	for _, row := range rows {
		score := ""
		if row.DearthScore != nil {
			score = strconv.FormatFloat(*row.DearthScore, 'f', 1, 64)
		}
		if err := cw.Write([]string{
			row.FIPS,
			row.Name,
			row.State,
			strconv.FormatInt(row.Population, 10),
			strconv.Itoa(row.ProviderCount),
			strconv.FormatFloat(row.ProviderDensity, 'f', 2, 64),
			score,
			row.DearthLabel,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
