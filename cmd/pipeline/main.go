package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/DearthMap/DM-Backend/internal/catalog"
	"github.com/DearthMap/DM-Backend/internal/config"
	"github.com/DearthMap/DM-Backend/internal/db"
	"github.com/DearthMap/DM-Backend/internal/pipeline"
	"github.com/DearthMap/DM-Backend/internal/routing"
	"github.com/DearthMap/DM-Backend/internal/scores"
	"github.com/joho/godotenv"
)

func main() {
	skipDriveTimes := flag.Bool("skip-drivetimes", false,
		"skip OSRM drive-time resolution and keep proxy values")
	flag.Parse()

	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Config error: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config error: ", err)
	}

	db.Connect()
	catalog.Init()
	scores.Init()

	var router pipeline.Router
	if !*skipDriveTimes {
		router = routing.NewClient(cfg.OSRMURL, cfg.RouteRateLimit)
	}

	report, err := pipeline.Run(context.Background(), db.DB, router, cfg,
		pipeline.Options{SkipDriveTimes: *skipDriveTimes})
	if err != nil {
		log.Fatal("Pipeline failed: ", err)
	}

	fmt.Println("============================================================")
	fmt.Printf("Run %s complete in %s\n", report.Version, report.Elapsed.Round(time.Second))
	fmt.Printf("  Metric rows:     %d\n", report.MetricRows)
	if report.DriveTime.Skipped {
		fmt.Println("  Drive times:     skipped (proxy values stand)")
	} else {
		fmt.Printf("  Drive times:     %d routed, %d estimated\n",
			report.DriveTime.Routed, report.DriveTime.Estimated)
	}
	fmt.Printf("  Scored rows:     %d\n", report.ScoreRows)
	fmt.Println("============================================================")
}
