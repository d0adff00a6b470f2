// Package booking builds outbound deep-links to a third-party booking search.
// No price is computed locally; the link only pre-fills the provider's search.
package booking

import (
	"fmt"
	"strings"

	"github.com/ngmaloney/flightmap/internal/models"
)

// DefaultProvider is the booking site links point at unless configured otherwise.
const DefaultProvider = "www.kayak.com"

// Link returns https://{provider}/flights/{dep}-{arr}/{yyyy-mm-dd}.
// The date is the departure's calendar day as stated by the flight record.
func Link(provider, departure, arrival string, departureTime models.Timestamp) string {
	provider = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(provider), "https://"), "/")
	if provider == "" {
		provider = DefaultProvider
	}
	return fmt.Sprintf("https://%s/flights/%s-%s/%s", provider, departure, arrival, departureTime.Date())
}

// FlightLink is Link for a flight record.
func FlightLink(provider string, f models.Flight) string {
	return Link(provider, f.Departure.Code, f.Arrival.Code, f.DepartureTime)
}
