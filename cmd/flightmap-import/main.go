package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/flightmap/internal/config"
	"github.com/ngmaloney/flightmap/internal/database"
	"github.com/ngmaloney/flightmap/internal/importer"
	"github.com/ngmaloney/flightmap/internal/provision"
	"github.com/ngmaloney/flightmap/internal/store"
)

func main() {
	cfg := config.LoadServer()
	dbPath := flag.String("db", cfg.DBPath, "sqlite database path")
	flightsPath := flag.String("flights", "", "JSON array of flight documents to load")
	airportsPath := flag.String("airports", "", "JSON array of airport documents to load or refresh")
	replace := flag.Bool("replace", false, "drop existing flights before loading -flights")
	airline := flag.String("airline", "", "register an airline name")
	provisionAirports := flag.Bool("provision", false, "download Natural Earth airports when the table is empty")
	summary := flag.Bool("summary", false, "print record counts")
	flag.Parse()

	if *flightsPath == "" && *airportsPath == "" && *airline == "" && !*provisionAirports && !*summary {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	s := store.New(db)
	ctx := context.Background()

	if *provisionAirports {
		progress := make(chan string)
		done := make(chan error, 1)
		go func() {
			done <- provision.Provision(ctx, s, cfg.DataDir, progress)
			close(progress)
		}()
		for msg := range progress {
			fmt.Println(msg)
		}
		if err := <-done; err != nil {
			log.Fatalf("Provisioning failed: %v", err)
		}
	}

	// Airports first so flights loaded in the same run can be shown on the map.
	if *airportsPath != "" {
		n, err := importer.ImportAirportsFile(ctx, s, *airportsPath)
		if err != nil {
			log.Fatalf("Airport import failed: %v", err)
		}
		fmt.Printf("Loaded %s airports from %s\n", humanize.Comma(int64(n)), *airportsPath)
	}

	if *flightsPath != "" {
		n, err := importer.ImportFlightsFile(ctx, s, *flightsPath, *replace)
		if err != nil {
			log.Fatalf("Flight import failed: %v", err)
		}
		fmt.Printf("Loaded %s flights from %s\n", humanize.Comma(int64(n)), *flightsPath)
	}

	if *airline != "" {
		if err := s.AddAirline(ctx, *airline); err != nil {
			log.Fatalf("Adding airline: %v", err)
		}
		fmt.Printf("Added airline %q\n", *airline)
	}

	if *summary {
		sum, err := s.Summary(ctx)
		if err != nil {
			log.Fatalf("Summary failed: %v", err)
		}
		fmt.Printf("Flights:  %s\n", humanize.Comma(int64(sum.Flights)))
		fmt.Printf("Airports: %s\n", humanize.Comma(int64(sum.Airports)))
		fmt.Printf("Airlines: %s\n", humanize.Comma(int64(sum.Airlines)))
	}
}
