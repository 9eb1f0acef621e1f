package scores

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Read-only: the pipeline is the sole writer of score data.
	r.Get("/specialties", ListSpecialties)
	r.Get("/counties", ListCounties)
	r.Get("/counties/{fips}", GetCounty)
	r.Get("/export/csv", ExportCSV)

	return r
}
