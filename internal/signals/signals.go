// Package signals carries the messages exchanged between the map view, the
// result view and the coordinator.
package signals

import (
	"fmt"
	"strings"

	"github.com/ngmaloney/flightmap/internal/models"
)

// Signal is one of the message types below.
type Signal interface {
	signal()
	fmt.Stringer
}

// DepartureChosen is raised when the user picks an origin airport.
type DepartureChosen struct {
	Code string
}

// DestinationChosen is raised when the user picks a reachable airport on the map.
type DestinationChosen struct {
	Departure string
	Arrival   string
}

// FlightsRendered is raised once the result view has replaced its list.
type FlightsRendered struct {
	Seq   uint64
	Count int
}

// DestinationsAvailable carries the distinct arrivals of the latest result.
type DestinationsAvailable struct {
	Seq       uint64
	Departure string
	Arrivals  models.CodeSet
}

func (DepartureChosen) signal()       {}
func (DestinationChosen) signal()     {}
func (FlightsRendered) signal()       {}
func (DestinationsAvailable) signal() {}

func (s DepartureChosen) String() string {
	return "departureChosen(" + s.Code + ")"
}

func (s DestinationChosen) String() string {
	return "destinationChosen(" + s.Departure + ", " + s.Arrival + ")"
}

func (s FlightsRendered) String() string {
	return fmt.Sprintf("flightsRendered(#%d, %d flights)", s.Seq, s.Count)
}

func (s DestinationsAvailable) String() string {
	return fmt.Sprintf("destinationsAvailable(#%d, %s, [%s])", s.Seq, s.Departure, strings.Join(s.Arrivals.Sorted(), " "))
}

// Handler receives every published signal.
type Handler func(Signal)

// Bus is a callback registry owned by the coordinator.
// A signal published from inside a handler is queued and delivered after the
// current one finishes, so delivery order always equals publish order.
// Bus belongs to the UI loop and is not safe for concurrent use.
type Bus struct {
	handlers   []Handler
	queue      []Signal
	delivering bool
}

// Subscribe registers h. Handlers run in subscription order.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Publish delivers s to every handler.
func (b *Bus) Publish(s Signal) {
	b.queue = append(b.queue, s)
	if b.delivering {
		return
	}

	b.delivering = true
	defer func() { b.delivering = false }()

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		for _, h := range b.handlers {
			h(next)
		}
	}
}
