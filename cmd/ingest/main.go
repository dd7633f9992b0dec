// Command ingest loads a GTFS directory, builds the in-memory schedule
// index, prints its stats, and records the run in the ingestion audit log.
// The schedule index this engine queries stays in memory; there is no
// GTFS-to-SQL import step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
	"github.com/passbi/meetpoint/internal/ingestlog"
	"github.com/passbi/meetpoint/internal/schedule"
)

func main() {
	gtfsDir := flag.String("gtfs", "", "Path to a directory of GTFS text files (required)")
	skipAudit := flag.Bool("skip-audit-log", false, "Skip recording this run in the Postgres audit log")
	flag.Parse()

	if *gtfsDir == "" {
		fmt.Println("Usage: ingest --gtfs=<dir> [--skip-audit-log]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if _, err := os.Stat(*gtfsDir); os.IsNotExist(err) {
		log.Fatalf("GTFS directory not found: %s", *gtfsDir)
	}

	log.Println("Starting schedule index build...")
	log.Printf("GTFS directory: %s", *gtfsDir)

	ctx := context.Background()

	pool := auditPool(*skipAudit)
	if pool != nil {
		defer ingestlog.Close()
	}
	runID := auditStart(ctx, pool, *gtfsDir)

	startTime := time.Now()

	log.Println("Step 1/2: Parsing GTFS feed...")
	feed, err := gtfsfeed.LoadDir(*gtfsDir)
	if err != nil {
		auditFinish(ctx, pool, runID, schedule.Stats{}, err)
		log.Fatalf("Failed to parse GTFS directory: %v", err)
	}

	log.Println("Step 2/2: Building schedule index...")
	idx := schedule.New()
	idx.Build(feed)

	stats := idx.Stats()
	elapsed := time.Since(startTime)

	log.Printf("Index built in %s: %d stops, %d stations, %d trips, %d routes, %d walk edges",
		elapsed.Round(time.Millisecond), stats.Stops, stats.Stations, stats.Trips, stats.Routes, stats.WalkEdges)

	auditFinish(ctx, pool, runID, stats, nil)
	log.Println("Ingest completed successfully.")
}
