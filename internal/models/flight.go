package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Flight is a scheduled departure between two airports. The search core only
// reads flights; their lifecycle belongs to the import side.
type Flight struct {
	ID            string     `json:"id,omitempty"`
	Departure     AirportRef `json:"departureAirport"`
	Arrival       AirportRef `json:"arrivalAirport"`
	Airline       string     `json:"airline"`
	FlightNumber  string     `json:"flightNumber"`
	DepartureTime Timestamp  `json:"departureTime"`
	ArrivalTime   Timestamp  `json:"arrivalTime"`
	DayOfWeek     string     `json:"dayOfWeek"` // e.g. "Friday"
}

// flightDoc has Flight's fields without its methods.
type flightDoc Flight

// Validate checks the fields the search core depends on.
func (f Flight) Validate() error {
	if !IsAirportCode(f.Departure.Code) {
		return invalid("departureAirport.iataCode", fmt.Sprintf("must be a 3-letter code, got %q", f.Departure.Code))
	}
	if !IsAirportCode(f.Arrival.Code) {
		return invalid("arrivalAirport.iataCode", fmt.Sprintf("must be a 3-letter code, got %q", f.Arrival.Code))
	}
	if f.DepartureTime.IsZero() {
		return invalid("departureTime", "is required")
	}
	return nil
}

// UnmarshalJSON normalizes codes, fills a missing day-of-week label and rejects
// records the search core could not display.
func (f *Flight) UnmarshalJSON(data []byte) error {
	var doc flightDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	parsed := Flight(doc)
	parsed.Departure.Code = NormalizeCode(parsed.Departure.Code)
	parsed.Arrival.Code = NormalizeCode(parsed.Arrival.Code)
	parsed.Airline = strings.TrimSpace(parsed.Airline)
	parsed.FlightNumber = strings.TrimSpace(parsed.FlightNumber)

	if err := parsed.Validate(); err != nil {
		return err
	}
	if parsed.DayOfWeek == "" {
		parsed.DayOfWeek = parsed.DepartureTime.Weekday().String()
	}

	*f = parsed
	return nil
}

// SortByDeparture orders flights by departure time, earliest first.
// Flights departing at the same instant keep their relative order.
func SortByDeparture(flights []Flight) {
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
}
