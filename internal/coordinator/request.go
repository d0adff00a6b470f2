package coordinator

import (
	"context"
	"fmt"

	"github.com/ngmaloney/flightmap/internal/models"
)

// Kind identifies what a request asks the query service for.
type Kind int

const (
	KindDestinations Kind = iota
	KindFlights
)

func (k Kind) String() string {
	if k == KindFlights {
		return "flights"
	}
	return "destinations"
}

// Request is a query the coordinator wants executed off the UI loop.
// For KindDestinations only Query.Departure is used.
type Request struct {
	Seq   uint64
	Kind  Kind
	Query models.SearchQuery
}

func (r Request) String() string {
	return fmt.Sprintf("#%d %s %s", r.Seq, r.Kind, r.Query.Departure)
}

// Outcome is the result of executing a Request.
type Outcome struct {
	Seq          uint64
	Kind         Kind
	Query        models.SearchQuery
	Flights      []models.Flight
	Destinations []models.AirportRef
	Err          error
}

// QueryService is the part of the query service the coordinator needs.
type QueryService interface {
	Flights(ctx context.Context, q models.SearchQuery) ([]models.Flight, error)
	Destinations(ctx context.Context, code string) ([]models.AirportRef, error)
}

// Execute runs req against svc. It blocks, so callers run it off the UI loop.
func Execute(ctx context.Context, svc QueryService, req Request) Outcome {
	out := Outcome{Seq: req.Seq, Kind: req.Kind, Query: req.Query}
	switch req.Kind {
	case KindFlights:
		out.Flights, out.Err = svc.Flights(ctx, req.Query)
	default:
		out.Destinations, out.Err = svc.Destinations(ctx, req.Query.Departure)
	}
	return out
}
