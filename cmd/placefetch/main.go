package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[0] != "" {
		switch os.Args[1] {
		case "ingest":
			if err := runIngest(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "version":
			fmt.Println("placefetch " + version)
			return
		}
	}

	printUsage()
	os.Exit(2)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `placefetch - venue directory ingest pipeline

Usage:
  placefetch ingest [flags]  Fetch, enrich and store venues for a location
  placefetch export [flags]  Export a snapshot .db to CSV
  placefetch version         Show version

Run 'placefetch ingest --help' or 'placefetch export --help' for flags.
`)
}
