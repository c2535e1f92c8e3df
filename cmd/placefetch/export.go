package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nablem/bluette/internal/engine/storage"
)

func runExport(args []string) error {
	var dbPath, outputPath, format string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to snapshot .db file (required)")
	fs.StringVar(&outputPath, "output", "", "Output file path (default: same dir as db)")
	fs.StringVar(&format, "format", "csv", "Export format: csv")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: placefetch export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  placefetch export -db ./runs/placefetch_20260830.db\n")
		fmt.Fprintf(os.Stderr, "  placefetch export -db run.db -output venues.csv\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}

	if format != "csv" {
		return fmt.Errorf("unsupported format: %s (only csv supported)", format)
	}

	// Default output path
	if outputPath == "" {
		dir := filepath.Dir(dbPath)
		base := strings.TrimSuffix(filepath.Base(dbPath), ".db")
		outputPath = filepath.Join(dir, base+".csv")
	}

	store, err := storage.NewSnapshotStore(dbPath, log.New(os.Stderr, "", 0))
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer store.Close()

	places, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	if len(places) == 0 {
		return fmt.Errorf("no places found in snapshot")
	}

	// Export
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"external_id", "name", "address", "latitude", "longitude",
		"availability", "map_uri", "timezone", "rating", "rating_count", "query",
	})

	for _, p := range places {
		availability, _ := json.Marshal(p.Availability)
		w.Write([]string{
			p.ExternalID,
			p.Name,
			p.Address,
			fmt.Sprintf("%.6f", p.Latitude),
			fmt.Sprintf("%.6f", p.Longitude),
			string(availability),
			p.MapURI,
			p.Timezone,
			fmt.Sprintf("%.1f", p.Rating),
			fmt.Sprintf("%d", p.RatingCount),
			p.Query,
		})
	}

	fmt.Fprintf(os.Stderr, "Exported %d places to %s\n", len(places), outputPath)
	return nil
}
