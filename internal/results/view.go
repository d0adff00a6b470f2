// Package results owns the search form and the result list: the lifecycle of
// one flight query from submission to rendered rows with booking links.
package results

import (
	"fmt"

	"github.com/ngmaloney/flightmap/internal/booking"
	"github.com/ngmaloney/flightmap/internal/models"
)

// Phase is the visible state of the result list.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Empty
	Errored
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "results"
	case Empty:
		return "empty"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Row is one rendered flight.
type Row struct {
	Flight     models.Flight
	BookingURL string
}

// View is the result list. Only the most recently begun query may resolve it.
type View struct {
	provider string

	phase   Phase
	latest  uint64
	query   models.SearchQuery
	flights []models.Flight
	err     error
}

// NewView creates an idle list whose rows link to provider.
func NewView(provider string) *View {
	if provider == "" {
		provider = booking.DefaultProvider
	}
	return &View{provider: provider}
}

// Begin starts query seq: the list is cleared and shows a loading state.
func (v *View) Begin(q models.SearchQuery, seq uint64) {
	v.phase = Loading
	v.latest = seq
	v.query = q
	v.flights = nil
	v.err = nil
}

// Resolve applies the outcome of query seq. Outcomes for anything other than
// the pending query are ignored and Resolve returns false.
func (v *View) Resolve(seq uint64, flights []models.Flight, err error) bool {
	if v.phase != Loading || seq != v.latest {
		return false
	}

	if err != nil {
		v.phase = Errored
		v.err = err
		return true
	}

	res := models.SearchResult{Query: v.query, Flights: append([]models.Flight(nil), flights...)}
	models.SortByDeparture(res.Flights)
	v.flights = res.Flights
	if res.Empty() {
		v.phase = Empty
	} else {
		v.phase = Ready
	}
	return true
}

// Clear returns the list to idle. A pending query can no longer resolve it.
func (v *View) Clear() {
	v.phase = Idle
	v.query = models.SearchQuery{}
	v.flights = nil
	v.err = nil
}

// Fail shows err without a query in flight, e.g. a form validation error.
func (v *View) Fail(err error) {
	v.phase = Errored
	v.flights = nil
	v.err = err
}

// Phase returns the visible state.
func (v *View) Phase() Phase {
	return v.phase
}

// Latest returns the sequence number of the most recently begun query.
func (v *View) Latest() uint64 {
	return v.latest
}

func (v *View) Query() models.SearchQuery {
	return v.query
}

func (v *View) Err() error {
	return v.err
}

func (v *View) Provider() string {
	return v.provider
}

// Flights returns the flights currently shown, earliest departure first.
func (v *View) Flights() []models.Flight {
	return append([]models.Flight(nil), v.flights...)
}

// Rows pairs each shown flight with its booking deep-link.
func (v *View) Rows() []Row {
	rows := make([]Row, len(v.flights))
	for i, f := range v.flights {
		rows[i] = Row{Flight: f, BookingURL: booking.FlightLink(v.provider, f)}
	}
	return rows
}

// ArrivalCodes returns the distinct arrivals of the shown flights.
func (v *View) ArrivalCodes() models.CodeSet {
	return models.SearchResult{Query: v.query, Flights: v.flights}.ArrivalCodes()
}

// Message is the status line for the current phase.
func (v *View) Message() string {
	switch v.phase {
	case Loading:
		return fmt.Sprintf("Searching flights %s...", route(v.query))
	case Ready:
		if len(v.flights) == 1 {
			return fmt.Sprintf("1 flight %s", route(v.query))
		}
		return fmt.Sprintf("%d flights %s", len(v.flights), route(v.query))
	case Empty:
		return fmt.Sprintf("No flights found %s.", route(v.query))
	case Errored:
		return fmt.Sprintf("Search failed: %v", v.err)
	default:
		return "Pick a departure airport on the map or type a code."
	}
}

func route(q models.SearchQuery) string {
	if q.Arrival == "" {
		return "from " + q.Departure
	}
	return "from " + q.Departure + " to " + q.Arrival
}
