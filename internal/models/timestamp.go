package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const naiveLayout = "2006-01-02T15:04:05"

// Layouts accepted for timestamps written without a UTC offset.
var naiveLayouts = []string{
	naiveLayout,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Timestamp is a point in time as stated by the source document.
// Timestamps written without an offset stay naive and are re-emitted without one,
// so the calendar day never shifts when the value round-trips.
type Timestamp struct {
	time.Time
	Naive bool
}

// ParseTimestamp accepts RFC 3339 and the common offset-less ISO forms.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("timestamp is empty")
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Timestamp{Time: t}, nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Naive: true}, nil
		}
	}

	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MustTimestamp is ParseTimestamp for literals known to be valid.
func MustTimestamp(s string) Timestamp {
	t, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	if t.Naive {
		return t.Format(naiveLayout)
	}
	return t.Format(time.RFC3339)
}

// Date returns the calendar day (YYYY-MM-DD) in the timestamp's stated zone.
func (t Timestamp) Date() string {
	return t.Format("2006-01-02")
}

// HourOfDay returns the fractional hour in the stated zone, e.g. 14.5 for 14:30.
func (t Timestamp) HourOfDay() float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// Before reports whether t is earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Time.Before(u.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
