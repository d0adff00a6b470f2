package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Airport is immutable reference data loaded by the admin bulk import or the
// shapefile provisioner.
type Airport struct {
	Code      string  // IATA code, e.g. "SEA"
	ICAO      string  // ICAO code, e.g. "KSEA" (optional)
	Name      string
	City      string
	Country   string
	Longitude float64
	Latitude  float64
	Timezone  string // e.g. "America/Los_Angeles" (optional)
}

// AirportRef is the snapshot of an airport embedded in a flight.
type AirportRef struct {
	Code string `json:"iataCode"`
	Name string `json:"name"`
}

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// airportDoc is the wire shape of an airport document.
type airportDoc struct {
	Code     string    `json:"iataCode"`
	ICAO     string    `json:"icaoCode,omitempty"`
	Name     string    `json:"name"`
	City     string    `json:"city"`
	Country  string    `json:"country"`
	Location *GeoPoint `json:"location"`
	Timezone string    `json:"timezone,omitempty"`
}

// NormalizeCode trims and upper-cases an airport code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsAirportCode reports whether code is exactly three upper-case letters.
func IsAirportCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ValidCoordinates reports whether the position lies on the globe.
func ValidCoordinates(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// Validate checks the fields the map and the query service rely on.
func (a Airport) Validate() error {
	if !IsAirportCode(a.Code) {
		return invalid("iataCode", fmt.Sprintf("must be a 3-letter code, got %q", a.Code))
	}
	if !ValidCoordinates(a.Longitude, a.Latitude) {
		return invalid("location", fmt.Sprintf("coordinates out of range (%.4f, %.4f)", a.Longitude, a.Latitude))
	}
	return nil
}

// Ref returns the snapshot embedded in flights.
func (a Airport) Ref() AirportRef {
	return AirportRef{Code: a.Code, Name: a.Name}
}

func (a Airport) MarshalJSON() ([]byte, error) {
	return json.Marshal(airportDoc{
		Code:    a.Code,
		ICAO:    a.ICAO,
		Name:    a.Name,
		City:    a.City,
		Country: a.Country,
		Location: &GeoPoint{
			Type:        "Point",
			Coordinates: []float64{a.Longitude, a.Latitude},
		},
		Timezone: a.Timezone,
	})
}

// UnmarshalJSON rejects documents without a code or a usable position.
func (a *Airport) UnmarshalJSON(data []byte) error {
	var doc airportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if doc.Location == nil || len(doc.Location.Coordinates) != 2 {
		return invalid("location", "must carry [longitude, latitude]")
	}

	parsed := Airport{
		Code:      NormalizeCode(doc.Code),
		ICAO:      strings.ToUpper(strings.TrimSpace(doc.ICAO)),
		Name:      strings.TrimSpace(doc.Name),
		City:      strings.TrimSpace(doc.City),
		Country:   strings.TrimSpace(doc.Country),
		Longitude: doc.Location.Coordinates[0],
		Latitude:  doc.Location.Coordinates[1],
		Timezone:  doc.Timezone,
	}
	if err := parsed.Validate(); err != nil {
		return err
	}

	*a = parsed
	return nil
}
