package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/flightmap/internal/coordinator"
	"github.com/ngmaloney/flightmap/internal/mapview"
	"github.com/ngmaloney/flightmap/internal/queryclient"
	"github.com/ngmaloney/flightmap/internal/results"
)

// TestIntegration_MapSearchFlow walks departure → destinations → flights from the map
func TestIntegration_MapSearchFlow(t *testing.T) {
	client := newTestClient()
	m := readyModel(t, client)

	// Step 1: select the departure under the cursor
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.coord.Phase() != coordinator.DepartureSelected {
		t.Fatalf("phase = %v, want departureSelected", m.coord.Phase())
	}
	if m.mapView.State("SEA") != mapview.Departure {
		t.Errorf("SEA = %v, want departure", m.mapView.State("SEA"))
	}
	if got := m.inputs[inputDeparture].Value(); got != "SEA" {
		t.Errorf("departure input = %q, want SEA", got)
	}

	// Step 2: destinations come back and become pickable
	m = runCmd(t, m, cmd)
	if m.mapView.State("JFK") != mapview.AvailableDestination {
		t.Errorf("JFK = %v, want available-destination", m.mapView.State("JFK"))
	}
	if m.mapView.State("LAX") != mapview.Unavailable {
		t.Errorf("LAX = %v, want unavailable", m.mapView.State("LAX"))
	}

	// Step 3: clicking an unavailable airport does nothing
	m.cursor = "LAX"
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("unavailable marker must not issue a query")
	}

	// Step 4: pick the destination
	m.cursor = "JFK"
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.inputs[inputArrival].Value(); got != "JFK" {
		t.Errorf("arrival input = %q, want JFK", got)
	}
	m = runCmd(t, m, cmd)

	if m.coord.Phase() != coordinator.FlightsShown {
		t.Errorf("phase = %v, want flightsShown", m.coord.Phase())
	}
	if len(m.resultList.Items()) != 2 {
		t.Errorf("result list has %d items, want 2", len(m.resultList.Items()))
	}
	if m.resultList.Title != "Flights from SEA to JFK" {
		t.Errorf("list title = %q", m.resultList.Title)
	}
	last := client.flightQueries[len(client.flightQueries)-1]
	if last.Departure != "SEA" || last.Arrival != "JFK" {
		t.Errorf("flight query = %+v, want SEA→JFK", last)
	}
}

func TestIntegration_MouseClickSelectsDeparture(t *testing.T) {
	m := readyModel(t, newTestClient())

	mk, ok := m.mapView.Marker("LAX")
	if !ok {
		t.Fatal("LAX marker missing")
	}

	m, cmd := update(m, tea.MouseMsg{
		X:      mk.Col + mapLeft,
		Y:      mk.Row + mapTop,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})

	if m.cursor != "LAX" {
		t.Errorf("cursor = %q, want LAX", m.cursor)
	}
	if m.coord.Departure() != "LAX" {
		t.Errorf("departure = %q, want LAX", m.coord.Departure())
	}
	if cmd == nil {
		t.Error("expected a destinations lookup")
	}

	// The glyph for the departure sits on the screen row the click landed on
	lines := strings.Split(m.View(), "\n")
	if !strings.Contains(lines[mk.Row+mapTop], "●") {
		t.Errorf("screen row %d = %q, want the departure marker", mk.Row+mapTop, lines[mk.Row+mapTop])
	}
}

func TestIntegration_MouseClickOnEmptySea(t *testing.T) {
	m := readyModel(t, newTestClient())

	// Southern Pacific: no airport within a cell
	m, cmd := update(m, tea.MouseMsg{X: 2 + mapLeft, Y: 16 + mapTop, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if cmd != nil || m.coord.Departure() != "" {
		t.Error("a click away from markers must not select anything")
	}
}

func TestIntegration_StaleOutcomeIgnored(t *testing.T) {
	m := readyModel(t, newTestClient())

	m, first := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	// Clicking the departure again supersedes the first lookup
	m, second := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	m = runCmd(t, m, first)
	if m.mapView.State("JFK") != mapview.Neutral {
		t.Errorf("stale destinations applied: JFK = %v", m.mapView.State("JFK"))
	}

	m = runCmd(t, m, second)
	if m.mapView.State("JFK") != mapview.AvailableDestination {
		t.Errorf("JFK = %v, want available-destination", m.mapView.State("JFK"))
	}
}

func TestIntegration_FailureAndRetry(t *testing.T) {
	client := newTestClient()
	m := readyModel(t, client)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "SEA")

	client.err = errors.New("query service returned 502 Bad Gateway")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runCmd(t, m, cmd)

	if m.results.Phase() != results.Errored {
		t.Fatalf("results phase = %v, want errored", m.results.Phase())
	}
	if m.coord.Phase() != coordinator.DepartureSelected {
		t.Errorf("phase = %v, want departureSelected", m.coord.Phase())
	}
	view := m.View()
	if !strings.Contains(view, "Search failed") || !strings.Contains(view, "502 Bad Gateway") {
		t.Errorf("failure should be shown inline, got:\n%s", view)
	}
	if !strings.Contains(view, "Press R to retry") {
		t.Errorf("retry hint missing, got:\n%s", view)
	}

	// Retry from the map once the service is back
	client.err = nil
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.activePane != PaneMap {
		t.Fatalf("pane = %v, want PaneMap", m.activePane)
	}
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = runCmd(t, m, cmd)

	if m.results.Phase() != results.Ready {
		t.Errorf("results phase after retry = %v, want results", m.results.Phase())
	}
	if len(client.flightQueries) != 2 {
		t.Errorf("flight queries = %d, want 2", len(client.flightQueries))
	}
}

func TestIntegration_RetryHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint bool
	}{
		{"unreachable", &queryclient.TransportError{Err: errors.New("connection refused")}, true},
		{"server error", &queryclient.TransportError{StatusCode: 503}, true},
		{"rate limited", &queryclient.TransportError{StatusCode: 429}, true},
		{"bad request", &queryclient.TransportError{StatusCode: 400, Message: "invalid date"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient()
			m := readyModel(t, client)

			m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
			m = typeText(m, "SEA")
			client.err = tt.err
			m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
			m = runCmd(t, m, cmd)

			if m.results.Phase() != results.Errored {
				t.Fatalf("results phase = %v, want errored", m.results.Phase())
			}
			if got := strings.Contains(m.View(), "Press R to retry"); got != tt.hint {
				t.Errorf("retry hint shown = %v, want %v", got, tt.hint)
			}
		})
	}
}

func TestIntegration_InvalidFormHasNoRetryHint(t *testing.T) {
	m := readyModel(t, newTestClient())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.results.Phase() != results.Errored {
		t.Fatalf("results phase = %v, want errored", m.results.Phase())
	}
	if strings.Contains(m.View(), "Press R to retry") {
		t.Error("rejected input should not offer a retry")
	}
}

func TestIntegration_CursorMovement(t *testing.T) {
	m := readyModel(t, newTestClient())

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor != "JFK" {
		t.Errorf("right from SEA: cursor = %q, want JFK", m.cursor)
	}

	// LAX lies closer to JFK's west than SEA does
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor != "LAX" {
		t.Errorf("left from JFK: cursor = %q, want LAX", m.cursor)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != "LAX" {
		t.Errorf("down from LAX has no target: cursor = %q, want LAX", m.cursor)
	}
}

func TestRenderMap(t *testing.T) {
	v := mapview.New(36, 18)
	v.RenderAll(testAirports())
	v.SelectDeparture("SEA")

	out := renderMap(v, "JFK")
	lines := strings.Split(out, "\n")
	if len(lines) != 18 {
		t.Fatalf("rendered %d rows, want 18", len(lines))
	}

	sea, _ := v.Marker("SEA")
	if !strings.Contains(lines[sea.Row], "●") {
		t.Errorf("row %d should hold the departure marker: %q", sea.Row, lines[sea.Row])
	}
	if strings.Count(out, "•") != 2 {
		t.Errorf("want 2 neutral markers, got %d", strings.Count(out, "•"))
	}
}
