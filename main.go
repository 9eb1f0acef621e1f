package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/db"
	"github.com/DearthMap/DM-Backend/internal/middleware"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	catalog.Init()
	scores.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/api", scores.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
