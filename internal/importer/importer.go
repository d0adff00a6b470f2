// Package importer bulk-loads flight and airport documents from JSON files,
// the offline counterpart of the admin upload endpoints.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/ngmaloney/flightmap/internal/models"
)

// Store is the part of the store the importer writes to.
type Store interface {
	InsertFlights(ctx context.Context, flights []models.Flight) (int, error)
	ReplaceFlights(ctx context.Context, flights []models.Flight) (int, error)
	UpsertAirports(ctx context.Context, airports []models.Airport) (int, error)
}

// DecodeFlights reads a JSON array of flight documents. Every record must be
// valid; the first bad one fails the batch with its index. Records without an
// id are given a random UUID.
func DecodeFlights(r io.Reader) ([]models.Flight, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of flights: %w", err)
	}

	flights := make([]models.Flight, 0, len(raw))
	for i, doc := range raw {
		var f models.Flight
		if err := json.Unmarshal(doc, &f); err != nil {
			return nil, fmt.Errorf("flight %d: %w", i, err)
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// DecodeAirports reads a JSON array of airport documents, failing on the first
// invalid record.
func DecodeAirports(r io.Reader) ([]models.Airport, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of airports: %w", err)
	}

	airports := make([]models.Airport, 0, len(raw))
	for i, doc := range raw {
		var a models.Airport
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, fmt.Errorf("airport %d: %w", i, err)
		}
		airports = append(airports, a)
	}
	return airports, nil
}

// ImportFlightsFile loads the flights in path. With replace set the existing
// flights are dropped in the same transaction.
func ImportFlightsFile(ctx context.Context, s Store, path string, replace bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening flights file: %w", err)
	}
	defer f.Close()

	flights, err := DecodeFlights(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	var n int
	if replace {
		n, err = s.ReplaceFlights(ctx, flights)
	} else {
		n, err = s.InsertFlights(ctx, flights)
	}
	if err != nil {
		return 0, err
	}

	log.Printf("[importer] loaded %d flights from %s", n, path)
	return n, nil
}

// ImportAirportsFile loads or refreshes the airports in path.
func ImportAirportsFile(ctx context.Context, s Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening airports file: %w", err)
	}
	defer f.Close()

	airports, err := DecodeAirports(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	n, err := s.UpsertAirports(ctx, airports)
	if err != nil {
		return 0, err
	}

	log.Printf("[importer] loaded %d airports from %s", n, path)
	return n, nil
}
