package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result limits of the query service.
const (
	DefaultFlightLimit  = 50
	MaxFlightLimit      = 50
	DefaultAirportLimit = 5000
	MaxAirportLimit     = 5000
)

// SearchQuery is built per user interaction and never stored.
type SearchQuery struct {
	Departure string
	Arrival   string
	Date      string // YYYY-MM-DD
	Airline   string
	FromHour  *float64
	ToHour    *float64
}

// Validate enforces the query contract: departure is mandatory, the rest is
// optional but must be well formed when present.
func (q SearchQuery) Validate() error {
	if q.Departure == "" {
		return invalid("departure", "is required")
	}
	if !IsAirportCode(q.Departure) {
		return invalid("departure", fmt.Sprintf("must be a 3-letter code, got %q", q.Departure))
	}
	if q.Arrival != "" && !IsAirportCode(q.Arrival) {
		return invalid("arrival", fmt.Sprintf("must be a 3-letter code, got %q", q.Arrival))
	}
	if q.Date != "" {
		if _, err := time.Parse("2006-01-02", q.Date); err != nil {
			return invalid("date", "must be formatted YYYY-MM-DD")
		}
	}
	if q.FromHour != nil && (*q.FromHour < 0 || *q.FromHour > 24) {
		return invalid("fromHour", "must be between 0 and 24")
	}
	if q.ToHour != nil && (*q.ToHour < 0 || *q.ToHour > 24) {
		return invalid("toHour", "must be between 0 and 24")
	}
	if q.FromHour != nil && q.ToHour != nil && *q.FromHour > *q.ToHour {
		return invalid("fromHour", "must not be after toHour")
	}
	return nil
}

// DayOfWeek returns the weekday label the date filter matches against,
// or "" when no date was given.
func (q SearchQuery) DayOfWeek() string {
	if q.Date == "" {
		return ""
	}
	d, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		return ""
	}
	return d.Weekday().String()
}

// InHourRange reports whether a departure falls inside the query's hour window.
// Open ends of the window always match.
func (q SearchQuery) InHourRange(t Timestamp) bool {
	h := t.HourOfDay()
	if q.FromHour != nil && h < *q.FromHour {
		return false
	}
	if q.ToHour != nil && h > *q.ToHour {
		return false
	}
	return true
}

// Values encodes the query for GET /flights.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("departure", q.Departure)
	if q.Arrival != "" {
		v.Set("arrival", q.Arrival)
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Airline != "" {
		v.Set("airline", q.Airline)
	}
	if q.FromHour != nil {
		v.Set("fromHour", strconv.FormatFloat(*q.FromHour, 'f', -1, 64))
	}
	if q.ToHour != nil {
		v.Set("toHour", strconv.FormatFloat(*q.ToHour, 'f', -1, 64))
	}
	return v
}

// ParseSearchQuery is the inverse of Values. It normalizes codes and validates.
func ParseSearchQuery(v url.Values) (SearchQuery, error) {
	q := SearchQuery{
		Departure: NormalizeCode(v.Get("departure")),
		Arrival:   NormalizeCode(v.Get("arrival")),
		Date:      strings.TrimSpace(v.Get("date")),
		Airline:   strings.TrimSpace(v.Get("airline")),
	}

	var err error
	if q.FromHour, err = parseHour("fromHour", v.Get("fromHour")); err != nil {
		return SearchQuery{}, err
	}
	if q.ToHour, err = parseHour("toHour", v.Get("toHour")); err != nil {
		return SearchQuery{}, err
	}

	if err := q.Validate(); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

// ParseHour reads an optional hour-of-day value; blank input means no bound.
func ParseHour(field, raw string) (*float64, error) {
	return parseHour(field, raw)
}

func parseHour(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalid(field, "must be a number")
	}
	return &h, nil
}

// ClampLimit applies a default when requested is not positive and caps it at max.
func ClampLimit(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// SearchResult is the full replacement result of one flight query.
type SearchResult struct {
	Query   SearchQuery
	Flights []Flight
}

// Empty reports a zero-match result. It is a state, not an error.
func (r SearchResult) Empty() bool {
	return len(r.Flights) == 0
}

// ArrivalCodes returns the distinct arrival airports across the result.
func (r SearchResult) ArrivalCodes() CodeSet {
	set := make(CodeSet)
	for _, f := range r.Flights {
		set.Add(f.Arrival.Code)
	}
	return set
}

// Summary holds record counts for the admin dashboard.
type Summary struct {
	Flights  int `json:"flights"`
	Airports int `json:"airports"`
	Airlines int `json:"airlines"`
}
