package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "flightmap.db")
}

// Open opens the database at path, creating its directory and the schema as
// needed.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the airports, flights and airlines tables if missing.
// Existing rows are kept.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS airports (
			iata_code TEXT PRIMARY KEY,
			icao_code TEXT,
			name TEXT NOT NULL,
			city TEXT,
			country TEXT,
			longitude REAL NOT NULL,
			latitude REAL NOT NULL,
			timezone TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_airports_city ON airports(city);
	`)
	if err != nil {
		return fmt.Errorf("creating airports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id TEXT PRIMARY KEY,
			departure_code TEXT NOT NULL,
			departure_name TEXT,
			arrival_code TEXT NOT NULL,
			arrival_name TEXT,
			airline TEXT,
			flight_number TEXT,
			departure_time TEXT NOT NULL,
			departure_unix INTEGER NOT NULL,
			arrival_time TEXT,
			day_of_week TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_flights_departure ON flights(departure_code, departure_unix);
		CREATE INDEX IF NOT EXISTS idx_flights_airline ON flights(airline);
	`)
	if err != nil {
		return fmt.Errorf("creating flights table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS airlines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_airlines_name ON airlines(name);
	`)
	if err != nil {
		return fmt.Errorf("creating airlines table: %w", err)
	}

	return nil
}
