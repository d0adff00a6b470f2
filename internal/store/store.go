// Package store runs the query service's filtered reads and the admin writes
// against the sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ngmaloney/flightmap/internal/models"
)

// ErrDuplicateAirline is returned when an airline name is already registered.
var ErrDuplicateAirline = errors.New("airline already exists")

// Store wraps a database opened with database.Open.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SearchAirports returns airports with valid coordinates whose code, city or
// name contains search (case-insensitive), ordered by code.
func (s *Store) SearchAirports(ctx context.Context, search string, limit int) ([]models.Airport, error) {
	limit = models.ClampLimit(limit, models.DefaultAirportLimit, models.MaxAirportLimit)

	query := `
		SELECT iata_code, COALESCE(icao_code, ''), name, COALESCE(city, ''), COALESCE(country, ''),
		       longitude, latitude, COALESCE(timezone, '')
		FROM airports
		WHERE longitude BETWEEN -180 AND 180 AND latitude BETWEEN -90 AND 90`
	args := []any{}

	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query += ` AND (iata_code LIKE ? ESCAPE '\' OR city LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY iata_code LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying airports: %w", err)
	}
	defer rows.Close()

	airports := make([]models.Airport, 0)
	for rows.Next() {
		var a models.Airport
		if err := rows.Scan(&a.Code, &a.ICAO, &a.Name, &a.City, &a.Country, &a.Longitude, &a.Latitude, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scanning airport: %w", err)
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

// SearchFlights returns flights matching q ordered by departure time. The date
// matches the flight's weekday label. The hour window is applied to the
// ordered rows before the limit, so a narrow window still fills the page.
func (s *Store) SearchFlights(ctx context.Context, q models.SearchQuery, limit int) ([]models.Flight, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit = models.ClampLimit(limit, models.DefaultFlightLimit, models.MaxFlightLimit)

	query := `
		SELECT id, departure_code, COALESCE(departure_name, ''), arrival_code, COALESCE(arrival_name, ''),
		       COALESCE(airline, ''), COALESCE(flight_number, ''), departure_time,
		       COALESCE(arrival_time, ''), COALESCE(day_of_week, '')
		FROM flights
		WHERE departure_code = ?`
	args := []any{q.Departure}

	if q.Arrival != "" {
		query += ` AND arrival_code = ?`
		args = append(args, q.Arrival)
	}
	if day := q.DayOfWeek(); day != "" {
		query += ` AND day_of_week = ?`
		args = append(args, day)
	}
	if q.Airline != "" {
		query += ` AND airline = ? COLLATE NOCASE`
		args = append(args, q.Airline)
	}
	query += ` ORDER BY departure_unix, id`

	hourFilter := q.FromHour != nil || q.ToHour != nil
	if !hourFilter {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying flights: %w", err)
	}
	defer rows.Close()

	flights := make([]models.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		if hourFilter && !q.InHourRange(f.DepartureTime) {
			continue
		}
		flights = append(flights, f)
		if len(flights) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading flights: %w", err)
	}
	return flights, nil
}

func scanFlight(rows *sql.Rows) (models.Flight, error) {
	var (
		f                  models.Flight
		departure, arrival string
	)
	err := rows.Scan(&f.ID, &f.Departure.Code, &f.Departure.Name, &f.Arrival.Code, &f.Arrival.Name,
		&f.Airline, &f.FlightNumber, &departure, &arrival, &f.DayOfWeek)
	if err != nil {
		return f, fmt.Errorf("scanning flight: %w", err)
	}

	if f.DepartureTime, err = models.ParseTimestamp(departure); err != nil {
		return f, fmt.Errorf("flight %s departure time: %w", f.ID, err)
	}
	if arrival != "" {
		if f.ArrivalTime, err = models.ParseTimestamp(arrival); err != nil {
			return f, fmt.Errorf("flight %s arrival time: %w", f.ID, err)
		}
	}
	return f, nil
}

// Airlines returns the distinct airline names across all flights, alphabetically.
func (s *Store) Airlines(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT airline FROM flights
		WHERE airline IS NOT NULL AND airline <> ''
		ORDER BY airline`)
	if err != nil {
		return nil, fmt.Errorf("querying airlines: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning airline: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Destinations returns the distinct arrival airports of flights leaving code.
func (s *Store) Destinations(ctx context.Context, code string) ([]models.AirportRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT arrival_code, COALESCE(MAX(arrival_name), '')
		FROM flights
		WHERE departure_code = ?
		GROUP BY arrival_code
		ORDER BY arrival_code`, models.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("querying destinations: %w", err)
	}
	defer rows.Close()

	refs := make([]models.AirportRef, 0)
	for rows.Next() {
		var ref models.AirportRef
		if err := rows.Scan(&ref.Code, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Summary counts flights, airports and registered airlines.
func (s *Store) Summary(ctx context.Context) (models.Summary, error) {
	var sum models.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM flights),
			(SELECT COUNT(*) FROM airports),
			(SELECT COUNT(*) FROM airlines)`).Scan(&sum.Flights, &sum.Airports, &sum.Airlines)
	if err != nil {
		return models.Summary{}, fmt.Errorf("counting records: %w", err)
	}
	return sum, nil
}

// AirportCount returns the number of stored airports.
func (s *Store) AirportCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting airports: %w", err)
	}
	return n, nil
}

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// newID assigns ids to flights imported without one.
func newID() string {
	return uuid.NewString()
}
