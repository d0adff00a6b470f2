// Package config reads settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ngmaloney/flightmap/internal/booking"
	"github.com/ngmaloney/flightmap/internal/database"
)

// Server configures cmd/flightmap-server.
type Server struct {
	Port       string
	DBPath     string
	DataDir    string
	AdminToken string // empty disables /admin
	Provision  bool   // seed airports from Natural Earth when the table is empty

	CacheEnabled bool
	RedisURL     string
	RedisTTL     time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	ImportPath string // flights file reloaded on ImportSpec; empty disables
	ImportSpec string
}

// Client configures the terminal UI.
type Client struct {
	ServerURL       string
	BookingProvider string
	RequestTimeout  time.Duration
	LogFile         string
}

func LoadServer() Server {
	return Server{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("FLIGHTMAP_DB", database.DBPath()),
		DataDir:        getEnv("FLIGHTMAP_DATA_DIR", "data"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		Provision:      getEnvBool("PROVISION_AIRPORTS", true),
		CacheEnabled:   getEnvBool("CACHE_ENABLED", false),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTTL:       getEnvDuration("REDIS_TTL", 5*time.Minute),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
		ImportPath:     os.Getenv("FLIGHTS_IMPORT_PATH"),
		ImportSpec:     getEnv("FLIGHTS_IMPORT_SPEC", "@every 6h"),
	}
}

func LoadClient() Client {
	return Client{
		ServerURL:       getEnv("FLIGHTMAP_SERVER", "http://localhost:8080"),
		BookingProvider: getEnv("BOOKING_PROVIDER", booking.DefaultProvider),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		LogFile:         getEnv("FLIGHTMAP_LOG", "flightmap.log"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}
