package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ngmaloney/flightmap/internal/mapview"
)

// Screen offset of grid cell (0,0): title and status lines, then the top
// border of the map pane.
const (
	mapTop  = 3
	mapLeft = 1
)

func markerGlyph(s mapview.MarkerState) (string, lipgloss.Style) {
	switch s {
	case mapview.Departure:
		return "●", departureMarkerStyle
	case mapview.AvailableDestination:
		return "◆", destinationMarkerStyle
	case mapview.Unavailable:
		return "·", unavailableMarkerStyle
	default:
		return "•", neutralMarkerStyle
	}
}

// renderMap draws the marker grid. The cell holding cursor is highlighted.
func renderMap(v *mapview.View, cursor string) string {
	width, height := v.Size()
	grid := v.Grid()

	cursorCell := mapview.Point{Col: -1, Row: -1}
	if mk, ok := v.Marker(cursor); ok {
		cursorCell = mapview.Point{Col: mk.Col, Row: mk.Row}
		grid[cursorCell] = mk
	}

	lines := make([]string, height)
	for row := 0; row < height; row++ {
		var b strings.Builder
		for col := 0; col < width; col++ {
			p := mapview.Point{Col: col, Row: row}
			mk, ok := grid[p]
			if !ok {
				b.WriteByte(' ')
				continue
			}
			glyph, style := markerGlyph(mk.State)
			if p == cursorCell {
				style = cursorStyle.Foreground(style.GetForeground())
			}
			b.WriteString(style.Render(glyph))
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}

// describeMarker is the one-line summary shown for the airport under the cursor.
func describeMarker(mk mapview.Marker) string {
	a := mk.Airport
	place := a.City
	if a.Country != "" {
		if place != "" {
			place += ", "
		}
		place += a.Country
	}

	s := fmt.Sprintf("%s  %s", valueStyle.Bold(true).Render(a.Code), a.Name)
	if place != "" {
		s += mutedStyle.Render(" · " + place)
	}
	_, style := markerGlyph(mk.State)
	return s + "  " + style.Render("["+mk.State.String()+"]")
}
