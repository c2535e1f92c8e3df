package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nablem/bluette/internal/engine/geo"
	"github.com/nablem/bluette/internal/engine/places"
	"github.com/nablem/bluette/internal/engine/storage"
	"github.com/nablem/bluette/internal/model"
)

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func runIngest(args []string) error {
	var params model.IngestParams
	var outputDir, pgDSN string
	var snapshot bool

	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	fs.StringVar(&outputDir, "output", "./runs", "Output directory for run log and snapshot")
	fs.StringVar(&params.Location, "location", envString("LOCATION", ""), "City or area, e.g. 'Paris 17th arrondissement'. Env: LOCATION")
	fs.StringVar(&params.Country, "country", envString("COUNTRY", ""), "Country name for better accuracy. Env: COUNTRY")
	fs.StringVar(&params.Category, "category", "bars", "Venue category search term")
	fs.IntVar(&params.MaxResults, "max-results", 30, "Result cap after ranking")
	fs.IntVar(&params.MaxPages, "max-pages", 3, "Max search pages (upstream practical limit)")
	fs.IntVar(&params.Concurrency, "concurrency", 1, "Concurrent detail fetches")
	fs.StringVar(&params.FieldMask, "field-mask", places.DefaultFieldMask, "Detail fields to request")
	fs.BoolVar(&params.GeoFilter, "geo-filter", false, "Drop venues outside the geocoded area bound")
	fs.StringVar(&params.ProxyURL, "proxy", "", "HTTP/SOCKS5 proxy URL")
	fs.BoolVar(&params.Debug, "debug", false, "Dump raw responses")
	fs.StringVar(&pgDSN, "pg-dsn", envString("PG_DSN", ""), "Postgres DSN for the places store. Env: PG_DSN")
	fs.BoolVar(&snapshot, "snapshot", false, "Also write a local sqlite snapshot")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: placefetch ingest [flags]\n\nThe API credential is read from PLACES_API_KEY.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  placefetch ingest -location \"Paris 17th arrondissement\" -country France\n")
		fmt.Fprintf(os.Stderr, "  placefetch ingest -location Valparaiso -country Chile -category cafes -snapshot -output ./runs\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Startup validation: missing configuration is the only fatal condition.
	params.APIKey = envString("PLACES_API_KEY", "")
	if params.APIKey == "" {
		return errors.New("PLACES_API_KEY is required")
	}
	if params.Location == "" {
		return errors.New("-location (or LOCATION) is required")
	}
	if params.Country == "" {
		return errors.New("-country (or COUNTRY) is required")
	}
	if pgDSN == "" && !snapshot {
		return errors.New("either -pg-dsn / PG_DSN or -snapshot is required")
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	// Generate timestamped filenames
	ts := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("placefetch_%s", ts)
	logPath := filepath.Join(outputDir, baseName+".log")

	// Setup log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)
	logger.Printf("=== Session start: location=%q country=%q category=%q max_results=%d max_pages=%d concurrency=%d ===",
		params.Location, params.Country, params.Category, params.MaxResults, params.MaxPages, params.Concurrency)

	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	startTime := time.Now()

	// Open sinks
	var sinks []places.Sink
	var pgStore *storage.PostgresStore
	var snapStore *storage.SnapshotStore

	if pgDSN != "" {
		pgStore, err = storage.NewPostgresStore(ctx, pgDSN, logger)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer pgStore.Close()
		sinks = append(sinks, pgStore)
	}

	snapshotPath := ""
	if snapshot {
		snapshotPath = filepath.Join(outputDir, baseName+".db")
		snapStore, err = storage.NewSnapshotStore(snapshotPath, logger)
		if err != nil {
			return fmt.Errorf("opening snapshot: %w", err)
		}
		defer snapStore.Close()
		sinks = append(sinks, snapStore)
	}

	// Resolve the area bound when geo filtering is on
	opts := &places.RunOptions{}
	if params.GeoFilter {
		bound, err := geo.GeocodeArea(params.Location, params.Country)
		if err != nil {
			return fmt.Errorf("geocoding %q: %w", params.Location, err)
		}
		logger.Printf("GEO_BOUND min=%.4f,%.4f max=%.4f,%.4f",
			bound.Min.Lat(), bound.Min.Lon(), bound.Max.Lat(), bound.Max.Lon())
		opts.Keep = func(p model.Place) bool { return geo.Within(bound, p) }
	}

	client := places.NewClient(params.APIKey, params.ProxyURL, logger)
	if params.Debug {
		client.EnableDebug(outputDir)
	}

	fmt.Fprintf(os.Stderr, "Ingesting: %s in %s, %s (cap=%d)\n",
		params.Category, params.Location, params.Country, params.MaxResults)

	stats, err := places.Run(ctx, client, params, sinks, logger, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("ABORT err=%v", err)
		return fmt.Errorf("ingesting: %w", err)
	}

	duration := time.Since(startTime).Truncate(time.Second)

	logger.Printf("Done: candidates=%d enriched=%d failed=%d dropped=%d filtered=%d stored=%d store_errors=%d retries=%d",
		stats.CandidatesFound.Load(), stats.DetailsFetched.Load(),
		stats.DetailFailures.Load(), stats.Dropped.Load(), stats.Filtered.Load(),
		stats.Stored.Load(), stats.StoreErrors.Load(), stats.Retries.Load())

	// Print final summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Placefetch Complete\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Query:       %s in %s, %s\n", params.Category, params.Location, params.Country)
	fmt.Fprintf(os.Stderr, "  Candidates:  %d\n", stats.CandidatesFound.Load())
	fmt.Fprintf(os.Stderr, "  Enriched:    %d\n", stats.DetailsFetched.Load())
	fmt.Fprintf(os.Stderr, "  Failed:      %d\n", stats.DetailFailures.Load())
	fmt.Fprintf(os.Stderr, "  Dropped:     %d\n", stats.Dropped.Load())
	if params.GeoFilter {
		fmt.Fprintf(os.Stderr, "  Filtered:    %d\n", stats.Filtered.Load())
	}
	fmt.Fprintf(os.Stderr, "  Stored:      %d\n", stats.Stored.Load())
	fmt.Fprintf(os.Stderr, "  Store errs:  %d\n", stats.StoreErrors.Load())
	fmt.Fprintf(os.Stderr, "  Duration:    %s\n", duration)
	if snapshotPath != "" {
		fmt.Fprintf(os.Stderr, "  Snapshot:    %s\n", snapshotPath)
	}
	fmt.Fprintf(os.Stderr, "  Log:         %s\n", logPath)
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")

	return nil
}
