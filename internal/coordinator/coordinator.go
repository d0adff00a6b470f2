// Package coordinator drives the search flow between the map and the result
// list: select a departure, discover destinations, search flights, render the
// results and highlight where they go.
//
// All methods run on the UI loop. Queries are handed back to the caller as
// Requests tagged with increasing sequence numbers; their Outcomes are applied
// only while the request is still the latest one for the view it affects.
package coordinator

import (
	"fmt"
	"log"

	"github.com/ngmaloney/flightmap/internal/mapview"
	"github.com/ngmaloney/flightmap/internal/models"
	"github.com/ngmaloney/flightmap/internal/results"
	"github.com/ngmaloney/flightmap/internal/signals"
)

// Phase is the coordinator's position in the search flow.
type Phase int

const (
	Idle Phase = iota
	DepartureSelected
	DestinationsShown
	FlightsShown
)

func (p Phase) String() string {
	switch p {
	case DepartureSelected:
		return "departureSelected"
	case DestinationsShown:
		return "destinationsShown"
	case FlightsShown:
		return "flightsShown"
	default:
		return "idle"
	}
}

// Coordinator owns the signal bus between the map and the result list.
type Coordinator struct {
	Map     *mapview.View
	Results *results.View

	bus   signals.Bus
	phase Phase
	err   error

	departure string
	lastQuery *models.SearchQuery

	seq    uint64
	mapSeq uint64 // latest request allowed to change marker states

	pending *Request
}

// New wires m and r to a fresh bus.
func New(m *mapview.View, r *results.View) *Coordinator {
	c := &Coordinator{Map: m, Results: r}
	c.bus.Subscribe(c.handle)
	c.bus.Subscribe(m.HandleSignal)
	return c
}

// Subscribe adds an observer of every signal, after the built-in handlers.
func (c *Coordinator) Subscribe(h signals.Handler) {
	c.bus.Subscribe(h)
}

func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Departure returns the selected origin, "" when idle.
func (c *Coordinator) Departure() string {
	return c.departure
}

// Err returns the annotation left by the last failed query, if any.
func (c *Coordinator) Err() error {
	return c.err
}

// ClickMarker handles a click on the airport tagged code. It returns the query
// to run, or nil when the click changes nothing.
func (c *Coordinator) ClickMarker(code string) *Request {
	sig := c.Map.OnMarkerClicked(code)
	if sig == nil {
		return nil
	}
	c.bus.Publish(sig)
	return c.takePending()
}

// SubmitForm validates f and starts a flight search. Invalid input issues
// nothing, fails the result list and leaves the map untouched.
func (c *Coordinator) SubmitForm(f results.Form) (*Request, error) {
	q, err := f.Submit()
	if err != nil {
		// Fail also drops any search still in flight.
		c.Results.Fail(err)
		c.err = err
		if c.departure != "" {
			c.phase = DepartureSelected
		} else {
			c.phase = Idle
		}
		return nil, err
	}

	if q.Departure != c.departure {
		if !c.Map.SelectDeparture(q.Departure) {
			c.Map.ClearSelection()
		}
		c.departure = q.Departure
	}
	return c.searchFlights(q), nil
}

// Retry repeats the last flight search.
func (c *Coordinator) Retry() *Request {
	if c.lastQuery == nil {
		return nil
	}
	return c.searchFlights(*c.lastQuery)
}

// Reset clears the selection and the result list. Pending queries are
// superseded.
func (c *Coordinator) Reset() {
	c.seq++
	c.mapSeq = c.seq
	c.phase = Idle
	c.err = nil
	c.departure = ""
	c.lastQuery = nil
	c.Map.ClearSelection()
	c.Results.Clear()
}

// Resolve applies an outcome. Superseded outcomes are dropped.
func (c *Coordinator) Resolve(o Outcome) {
	switch o.Kind {
	case KindFlights:
		c.resolveFlights(o)
	default:
		c.resolveDestinations(o)
	}
}

func (c *Coordinator) resolveDestinations(o Outcome) {
	if o.Seq != c.mapSeq {
		log.Printf("[coordinator] dropping stale destinations #%d (latest #%d)", o.Seq, c.mapSeq)
		return
	}
	if o.Err != nil {
		c.err = fmt.Errorf("destinations from %s: %w", o.Query.Departure, o.Err)
		return
	}

	codes := make(models.CodeSet, len(o.Destinations))
	for _, ref := range o.Destinations {
		codes.Add(ref.Code)
	}
	c.bus.Publish(signals.DestinationsAvailable{Seq: o.Seq, Departure: o.Query.Departure, Arrivals: codes})
}

func (c *Coordinator) resolveFlights(o Outcome) {
	if !c.Results.Resolve(o.Seq, o.Flights, o.Err) {
		log.Printf("[coordinator] dropping stale flights #%d (latest #%d)", o.Seq, c.Results.Latest())
		return
	}

	if o.Err != nil {
		c.phase = DepartureSelected
		c.err = fmt.Errorf("flights from %s: %w", o.Query.Departure, o.Err)
		return
	}

	c.phase = FlightsShown
	c.err = nil
	c.bus.Publish(signals.FlightsRendered{Seq: o.Seq, Count: len(c.Results.Flights())})
	if o.Seq == c.mapSeq {
		c.bus.Publish(signals.DestinationsAvailable{
			Seq:       o.Seq,
			Departure: o.Query.Departure,
			Arrivals:  c.Results.ArrivalCodes(),
		})
	}
}

func (c *Coordinator) handle(sig signals.Signal) {
	switch s := sig.(type) {
	case signals.DepartureChosen:
		if c.lastQuery != nil && c.lastQuery.Departure != s.Code {
			c.lastQuery = nil
		}
		c.departure = s.Code
		c.phase = DepartureSelected
		c.err = nil
		c.Results.Clear()
		c.pending = c.issue(KindDestinations, models.SearchQuery{Departure: s.Code})

	case signals.DestinationChosen:
		q := models.SearchQuery{Departure: s.Departure}
		if c.lastQuery != nil && c.lastQuery.Departure == s.Departure {
			q = *c.lastQuery
		}
		q.Arrival = s.Arrival
		c.pending = c.searchFlights(q)
	}
}

func (c *Coordinator) searchFlights(q models.SearchQuery) *Request {
	req := c.issue(KindFlights, q)
	c.Results.Begin(q, req.Seq)
	c.phase = DestinationsShown
	c.err = nil
	c.lastQuery = &q
	return req
}

func (c *Coordinator) issue(kind Kind, q models.SearchQuery) *Request {
	c.seq++
	c.mapSeq = c.seq
	return &Request{Seq: c.seq, Kind: kind, Query: q}
}

func (c *Coordinator) takePending() *Request {
	req := c.pending
	c.pending = nil
	return req
}
