// Package mapview keeps the state of the airport map: where each airport is
// drawn, which one is the selected departure and which ones are reachable.
// It is independent of any rendering environment.
package mapview

import (
	"log"
	"math"

	"github.com/ngmaloney/flightmap/internal/models"
	"github.com/ngmaloney/flightmap/internal/signals"
)

// View owns every marker and its MarkerState.
type View struct {
	width  int
	height int

	markers []*Marker
	byCode  map[string]*Marker

	departure string
	// available is nil until an availability result has been applied for the
	// current departure.
	available models.CodeSet
}

// New creates an empty map of width×height cells.
func New(width, height int) *View {
	return &View{
		width:  width,
		height: height,
		byCode: make(map[string]*Marker),
	}
}

// Size returns the grid dimensions.
func (v *View) Size() (width, height int) {
	return v.width, v.height
}

// Resize re-projects every marker onto a new grid.
func (v *View) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width = width
	v.height = height
	for _, m := range v.markers {
		v.place(m)
	}
}

// RenderAll replaces the markers with one per airport. Airports without a
// usable position are skipped and logged. Returns the number of markers created.
func (v *View) RenderAll(airports []models.Airport) int {
	v.markers = v.markers[:0]
	v.byCode = make(map[string]*Marker, len(airports))

	for _, a := range airports {
		if err := a.Validate(); err != nil {
			log.Printf("[mapview] skipping airport %q: %v", a.Code, err)
			continue
		}
		if _, dup := v.byCode[a.Code]; dup {
			log.Printf("[mapview] skipping duplicate airport %s", a.Code)
			continue
		}

		m := &Marker{Airport: a}
		v.place(m)
		v.markers = append(v.markers, m)
		v.byCode[a.Code] = m
	}

	if v.departure != "" && v.byCode[v.departure] == nil {
		v.departure = ""
		v.available = nil
	}
	v.recolor()

	return len(v.markers)
}

func (v *View) place(m *Marker) {
	m.X, m.Y = Project(m.Airport.Longitude, m.Airport.Latitude, float64(v.width), float64(v.height))
	m.Col = cell(m.X, v.width)
	m.Row = cell(m.Y, v.height)
}

// Markers returns a snapshot of every marker in render order.
func (v *View) Markers() []Marker {
	out := make([]Marker, len(v.markers))
	for i, m := range v.markers {
		out[i] = *m
	}
	return out
}

// Marker returns the marker tagged with code.
func (v *View) Marker(code string) (Marker, bool) {
	m, ok := v.byCode[code]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// State returns the state of code's marker; unknown codes are Neutral.
func (v *View) State(code string) MarkerState {
	if m, ok := v.byCode[code]; ok {
		return m.State
	}
	return Neutral
}

// Departure returns the selected origin, or "" when none is selected.
func (v *View) Departure() string {
	return v.departure
}

// Available returns the reachable codes currently highlighted.
func (v *View) Available() models.CodeSet {
	out := make(models.CodeSet)
	for _, m := range v.markers {
		if m.State == AvailableDestination {
			out.Add(m.Code())
		}
	}
	return out
}

// OnMarkerClicked turns a click into a domain signal.
//
//   - no departure yet, the departure itself, or a neutral marker: code becomes
//     the departure and DepartureChosen is returned
//   - a highlighted destination: DestinationChosen is returned
//   - an unavailable or unknown marker: nil
//
// A departure typed into the form may have no marker. Until a marker is
// selected, any marker that is not a highlighted destination becomes the
// new departure, so the map never locks up.
func (v *View) OnMarkerClicked(code string) signals.Signal {
	m, ok := v.byCode[code]
	if !ok {
		return nil
	}

	if v.departure == "" {
		v.SelectDeparture(code)
		return signals.DepartureChosen{Code: code}
	}
	if _, placed := v.byCode[v.departure]; !placed && m.State != AvailableDestination {
		v.SelectDeparture(code)
		return signals.DepartureChosen{Code: code}
	}

	switch m.State {
	case Departure, Neutral:
		v.SelectDeparture(code)
		return signals.DepartureChosen{Code: code}
	case AvailableDestination:
		return signals.DestinationChosen{Departure: v.departure, Arrival: code}
	default:
		return nil
	}
}

// SelectDeparture marks code as the departure and clears every other special
// state. Returns false when no marker carries code.
func (v *View) SelectDeparture(code string) bool {
	if _, ok := v.byCode[code]; !ok {
		return false
	}
	v.departure = code
	v.available = nil
	v.recolor()
	return true
}

// ClearSelection returns every marker to Neutral.
func (v *View) ClearSelection() {
	v.departure = ""
	v.available = nil
	v.recolor()
}

// ApplyAvailability recomputes every marker: departure gets Departure, codes in
// destinations (other than the departure) get AvailableDestination, the rest
// are Unavailable. Calling it again with the same arguments changes nothing.
func (v *View) ApplyAvailability(departure string, destinations models.CodeSet) {
	v.departure = departure
	v.available = make(models.CodeSet, len(destinations))
	for code := range destinations {
		if code != departure {
			v.available.Add(code)
		}
	}
	v.recolor()
}

// HandleSignal applies DestinationsAvailable; other signals are ignored.
func (v *View) HandleSignal(s signals.Signal) {
	if da, ok := s.(signals.DestinationsAvailable); ok {
		v.ApplyAvailability(da.Departure, da.Arrivals)
	}
}

func (v *View) recolor() {
	for _, m := range v.markers {
		m.State = v.classify(m.Code())
	}
}

func (v *View) classify(code string) MarkerState {
	switch {
	case v.departure == "":
		if v.available != nil && v.available.Has(code) {
			return AvailableDestination
		}
		return Neutral
	case code == v.departure:
		return Departure
	case v.available == nil:
		return Neutral
	case v.available.Has(code):
		return AvailableDestination
	default:
		return Unavailable
	}
}

// Grid returns the marker drawn in each occupied cell. When airports share a
// cell the most significant state wins, then the first rendered.
func (v *View) Grid() map[Point]Marker {
	out := make(map[Point]Marker, len(v.markers))
	for _, m := range v.markers {
		p := Point{Col: m.Col, Row: m.Row}
		if cur, ok := out[p]; ok && cur.State.priority() >= m.State.priority() {
			continue
		}
		out[p] = *m
	}
	return out
}

// MarkerAt resolves a click at (col, row) to the closest marker within one
// cell, preferring the most significant state on ties.
func (v *View) MarkerAt(col, row int) (string, bool) {
	var best *Marker
	bestDist := math.MaxInt
	for _, m := range v.markers {
		dc, dr := abs(m.Col-col), abs(m.Row-row)
		if dc > 1 || dr > 1 {
			continue
		}
		d := dc + dr
		if best == nil || d < bestDist || (d == bestDist && m.State.priority() > best.State.priority()) {
			best, bestDist = m, d
		}
	}
	if best == nil {
		return "", false
	}
	return best.Code(), true
}

// offAxisPenalty ranks markers outside the 90° cone after every marker inside it.
const offAxisPenalty = 1e6

// Nearest finds the closest marker from `from` in direction dir. With no
// starting marker it returns the first rendered airport.
func (v *View) Nearest(from string, dir Direction) (string, bool) {
	origin, ok := v.byCode[from]
	if !ok {
		if len(v.markers) == 0 {
			return "", false
		}
		return v.markers[0].Code(), true
	}

	var best *Marker
	bestScore := math.Inf(1)
	for _, m := range v.markers {
		if m == origin {
			continue
		}
		dx, dy := m.X-origin.X, m.Y-origin.Y

		var along, across float64
		switch dir {
		case Up:
			along, across = -dy, dx
		case Down:
			along, across = dy, dx
		case Left:
			along, across = -dx, dy
		case Right:
			along, across = dx, dy
		}
		if along <= 0 {
			continue
		}

		score := along + 2*math.Abs(across)
		if math.Abs(across) > along {
			score += offAxisPenalty
		}
		if score < bestScore {
			best, bestScore = m, score
		}
	}
	if best == nil {
		return "", false
	}
	return best.Code(), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
