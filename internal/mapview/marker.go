package mapview

import "github.com/ngmaloney/flightmap/internal/models"

// MarkerState is the visual classification of one airport marker.
type MarkerState int

const (
	Neutral              MarkerState = iota // no departure chosen, or availability not yet known
	Departure                               // the selected origin
	AvailableDestination                    // reachable from the selected origin
	Unavailable                             // dimmed
)

func (s MarkerState) String() string {
	switch s {
	case Departure:
		return "departure"
	case AvailableDestination:
		return "available-destination"
	case Unavailable:
		return "unavailable"
	default:
		return "neutral"
	}
}

// priority decides which marker is drawn when several share a cell.
func (s MarkerState) priority() int {
	switch s {
	case Departure:
		return 3
	case AvailableDestination:
		return 2
	case Neutral:
		return 1
	default:
		return 0
	}
}

// Marker is one rendered airport.
type Marker struct {
	Airport  models.Airport
	X, Y     float64 // projected position
	Col, Row int     // grid cell
	State    MarkerState
}

// Code returns the airport code the marker is tagged with.
func (m Marker) Code() string {
	return m.Airport.Code
}

// Point addresses one grid cell.
type Point struct {
	Col, Row int
}

// Direction is a cursor movement on the map.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)
