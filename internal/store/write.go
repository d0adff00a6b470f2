package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ngmaloney/flightmap/internal/models"
)

// InsertFlights validates and stores flights in one transaction. Flights
// without an id get a fresh one; an existing id is overwritten.
func (s *Store) InsertFlights(ctx context.Context, flights []models.Flight) (int, error) {
	return s.writeFlights(ctx, flights, false)
}

// ReplaceFlights swaps the whole flight table for flights atomically.
func (s *Store) ReplaceFlights(ctx context.Context, flights []models.Flight) (int, error) {
	return s.writeFlights(ctx, flights, true)
}

func (s *Store) writeFlights(ctx context.Context, flights []models.Flight, replace bool) (int, error) {
	for i, f := range flights {
		if err := f.Validate(); err != nil {
			return 0, fmt.Errorf("flight %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM flights`); err != nil {
			return 0, fmt.Errorf("clearing flights: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO flights (
			id, departure_code, departure_name, arrival_code, arrival_name, airline,
			flight_number, departure_time, departure_unix, arrival_time, day_of_week
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing flight insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range flights {
		if f.ID == "" {
			f.ID = newID()
		}
		if f.DayOfWeek == "" {
			f.DayOfWeek = f.DepartureTime.Weekday().String()
		}

		_, err := stmt.ExecContext(ctx,
			f.ID, f.Departure.Code, f.Departure.Name, f.Arrival.Code, f.Arrival.Name, f.Airline,
			f.FlightNumber, f.DepartureTime.String(), f.DepartureTime.Unix(), nullable(f.ArrivalTime.String()), f.DayOfWeek)
		if err != nil {
			return 0, fmt.Errorf("inserting flight %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing flights: %w", err)
	}
	return len(flights), nil
}

// UpsertAirports inserts airports or refreshes existing codes.
func (s *Store) UpsertAirports(ctx context.Context, airports []models.Airport) (int, error) {
	for i, a := range airports {
		if err := a.Validate(); err != nil {
			return 0, fmt.Errorf("airport %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airports (iata_code, icao_code, name, city, country, longitude, latitude, timezone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(iata_code) DO UPDATE SET
			icao_code = excluded.icao_code,
			name = excluded.name,
			city = excluded.city,
			country = excluded.country,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			timezone = excluded.timezone`)
	if err != nil {
		return 0, fmt.Errorf("preparing airport upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range airports {
		_, err := stmt.ExecContext(ctx, a.Code, nullable(a.ICAO), a.Name, a.City, a.Country, a.Longitude, a.Latitude, nullable(a.Timezone))
		if err != nil {
			return 0, fmt.Errorf("upserting airport %s: %w", a.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing airports: %w", err)
	}
	return len(airports), nil
}

// AddAirline registers an airline name.
func (s *Store) AddAirline(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &models.ValidationError{Field: "name", Reason: "is required"}
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airlines WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking airline: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%q: %w", name, ErrDuplicateAirline)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO airlines (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("inserting airline: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
