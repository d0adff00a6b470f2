package ui

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/flightmap/internal/coordinator"
	"github.com/ngmaloney/flightmap/internal/mapview"
	"github.com/ngmaloney/flightmap/internal/models"
	"github.com/ngmaloney/flightmap/internal/queryclient"
	"github.com/ngmaloney/flightmap/internal/results"
)

// AppState represents the current state of the application
type AppState int

const (
	StateLoading AppState = iota // Loading the airport listing
	StateReady                   // Map, form and results on screen
	StateError                   // Airports could not be loaded
)

// ActivePane represents which pane is currently focused
type ActivePane int

const (
	PaneMap ActivePane = iota
	PaneForm
	PaneResults
)

// DefaultTimeout bounds every query service call made by the UI.
const DefaultTimeout = 15 * time.Second

// focus ring positions: the map, each form input, then the result list
const focusStops = inputCount + 2

// Model represents the application's state
type Model struct {
	state      AppState
	activePane ActivePane
	width      int
	height     int
	err        error

	client  Client
	timeout time.Duration

	// Search flow
	coord   *coordinator.Coordinator
	mapView *mapview.View
	results *results.View
	cursor  string // airport code under the map cursor

	// Widgets
	inputs     []textinput.Model
	inputFocus int
	resultList list.Model
	spinner    spinner.Model

	airportCount int
	airlines     []string
	notice       string
}

// NewModel creates a new application model. Booking links point at provider.
func NewModel(client Client, provider string, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	mv := mapview.New(80, 20)
	rv := results.NewView(provider)

	return Model{
		state:      StateLoading,
		activePane: PaneMap,
		client:     client,
		timeout:    timeout,
		coord:      coordinator.New(mv, rv),
		mapView:    mv,
		results:    rv,
		inputs:     newFormInputs(),
		resultList: createResultList(nil, 80, 10),
		spinner:    s,
	}
}

// Init starts loading the airports and airline names
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadAirports(m.client, m.timeout),
		loadAirlines(m.client, m.timeout),
	)
}

// layout splits the window between the map grid and the result list.
func (m Model) layout() (mapWidth, mapHeight, listHeight int) {
	mapWidth = max(m.width-2, 10)
	mapHeight = max(m.height*45/100, 6)
	// title, status, map border, form pane, help
	listHeight = max(m.height-mapHeight-2-2-3-1, 4)
	return mapWidth, mapHeight, listHeight
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		mapWidth, mapHeight, listHeight := m.layout()
		m.mapView.Resize(mapWidth, mapHeight)
		m.resultList.SetSize(msg.Width, listHeight)
		return m, nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case airportsLoadedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("loading airports: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.airportCount = m.mapView.RenderAll(msg.airports)
		m.state = StateReady
		m.err = nil
		if _, ok := m.mapView.Marker(m.cursor); !ok {
			m.cursor, _ = m.mapView.Nearest("", mapview.Right)
		}
		if m.airportCount == 0 {
			m.notice = "No airports yet, the server may still be provisioning (L: reload)"
		} else {
			m.notice = fmt.Sprintf("Loaded %s airports", humanize.Comma(int64(m.airportCount)))
		}
		m.inputs[inputDeparture].SetSuggestions(airportCodes(msg.airports))
		m.inputs[inputArrival].SetSuggestions(airportCodes(msg.airports))
		return m, nil

	case airlinesLoadedMsg:
		if msg.err != nil {
			log.Printf("[ui] airline suggestions unavailable: %v", msg.err)
			m.notice = "Airline suggestions unavailable"
			return m, nil
		}
		m.airlines = msg.airlines
		m.inputs[inputAirline].SetSuggestions(msg.airlines)
		return m, nil

	case outcomeMsg:
		m.coord.Resolve(msg.outcome)
		m.syncResults()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Copy failed: " + msg.err.Error()
		} else {
			m.notice = "Copied " + msg.url
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and friends go to the focused input
	if m.activePane == PaneForm {
		var cmd tea.Cmd
		m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateLoading:
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil

	case StateError:
		if key == "q" {
			return m, tea.Quit
		}
		// Any other key retries
		m.state = StateLoading
		m.err = nil
		return m, loadAirports(m.client, m.timeout)
	}

	switch key {
	case "tab":
		cmd := m.setFocus((m.focusPos() + 1) % focusStops)
		return m, cmd
	case "shift+tab":
		cmd := m.setFocus((m.focusPos() + focusStops - 1) % focusStops)
		return m, cmd
	}

	switch m.activePane {
	case PaneForm:
		return m.handleFormKey(msg)
	case PaneResults:
		return m.handleResultsKey(msg)
	default:
		return m.handleMapKey(msg)
	}
}

// handleMapKey handles keyboard input while the map is focused
func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up":
		m.moveCursor(mapview.Up)
	case "down":
		m.moveCursor(mapview.Down)
	case "left":
		m.moveCursor(mapview.Left)
	case "right":
		m.moveCursor(mapview.Right)
	case "enter", " ":
		if m.cursor != "" {
			return m.click(m.cursor)
		}
	case "/":
		cmd := m.setFocus(1 + inputDeparture)
		return m, cmd
	case "r":
		return m.retry()
	case "esc":
		return m.reset()
	case "c":
		return m, m.copySelected()
	case "L":
		m.state = StateLoading
		return m, loadAirports(m.client, m.timeout)
	}
	return m, nil
}

// handleFormKey handles keyboard input while a form field is focused
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyEsc:
		cmd := m.setFocus(0)
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
	return m, cmd
}

// handleResultsKey handles keyboard input while the result list is focused
func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "c", "enter":
		return m, m.copySelected()
	case "r":
		return m.retry()
	case "esc":
		cmd := m.setFocus(0)
		return m, cmd
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != StateReady || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	code, ok := m.mapView.MarkerAt(msg.X-mapLeft, msg.Y-mapTop)
	if !ok {
		return m, nil
	}
	m.cursor = code
	m.setFocus(0)
	return m.click(code)
}

// click forwards a marker click to the coordinator and runs the query it asks for.
func (m Model) click(code string) (tea.Model, tea.Cmd) {
	req := m.coord.ClickMarker(code)
	if req == nil {
		return m, nil
	}
	m.syncForm(req)
	m.syncResults()
	return m, runRequest(m.client, m.timeout, req)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.coord.SubmitForm(formFromInputs(m.inputs))
	m.syncResults()
	if err != nil {
		return m, nil
	}
	m.syncForm(req)
	if _, ok := m.mapView.Marker(req.Query.Departure); ok {
		m.cursor = req.Query.Departure
	}
	return m, runRequest(m.client, m.timeout, req)
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	req := m.coord.Retry()
	if req == nil {
		return m, nil
	}
	m.syncResults()
	return m, runRequest(m.client, m.timeout, req)
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	m.coord.Reset()
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.notice = ""
	m.syncResults()
	return m, nil
}

func (m *Model) moveCursor(dir mapview.Direction) {
	if code, ok := m.mapView.Nearest(m.cursor, dir); ok {
		m.cursor = code
	}
}

// syncForm mirrors a request issued from the map into the form fields.
func (m *Model) syncForm(req *coordinator.Request) {
	m.inputs[inputDeparture].SetValue(req.Query.Departure)
	m.inputs[inputArrival].SetValue(req.Query.Arrival)
}

// syncResults rebuilds the result list from the result view.
func (m *Model) syncResults() {
	if m.results.Phase() != results.Ready {
		m.resultList.SetItems(nil)
		return
	}
	q := m.results.Query()
	m.resultList.Title = "Flights from " + q.Departure
	if q.Arrival != "" {
		m.resultList.Title += " to " + q.Arrival
	}
	m.resultList.SetItems(flightItems(m.results.Rows()))
	m.resultList.Select(0)
}

func (m Model) copySelected() tea.Cmd {
	item, ok := m.resultList.SelectedItem().(flightItem)
	if !ok {
		return nil
	}
	return copyLink(item.row.BookingURL)
}

func (m Model) focusPos() int {
	switch m.activePane {
	case PaneForm:
		return 1 + m.inputFocus
	case PaneResults:
		return focusStops - 1
	default:
		return 0
	}
}

func (m *Model) setFocus(pos int) tea.Cmd {
	switch {
	case pos == 0:
		m.activePane = PaneMap
		focusInput(m.inputs, -1)
	case pos <= inputCount:
		m.activePane = PaneForm
		m.inputFocus = pos - 1
		focusInput(m.inputs, m.inputFocus)
		return textinput.Blink
	default:
		m.activePane = PaneResults
		focusInput(m.inputs, -1)
	}
	return nil
}

func airportCodes(airports []models.Airport) []string {
	codes := make([]string, 0, len(airports))
	for _, a := range airports {
		codes = append(codes, a.Code)
	}
	return codes
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateLoading:
		return m.viewLoading()
	case StateError:
		return m.viewError()
	}
	return m.viewMain()
}

// viewLoading renders the startup screen
func (m Model) viewLoading() string {
	title := titleStyle.Render("✈ Flight Map")
	status := mutedStyle.Render("Loading airports from the query service...")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), status),
	)
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	var errorMsg string
	if m.err != nil {
		errorMsg = m.err.Error()
	} else {
		errorMsg = "An unknown error occurred"
	}

	help := helpStyle.Render("Press any key to retry • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}

// viewMain renders the map, the form and the results. The title and status
// line must stay one line each so mouse clicks land on the right grid cell.
func (m Model) viewMain() string {
	line := lipgloss.NewStyle().MaxWidth(m.width)

	title := titleStyle.Render("✈ Flight Map") + "  " +
		mutedStyle.Render(humanize.Comma(int64(m.airportCount))+" airports")

	mapStyle := mapPaneStyle
	if m.activePane == PaneMap {
		mapStyle = activeMapPaneStyle
	}

	sections := []string{
		line.Render(title),
		line.Render(m.statusLine()),
		mapStyle.Render(renderMap(m.mapView, m.cursor)),
		renderForm(m.inputs, m.activePane == PaneForm, m.width),
		m.viewResults(),
		line.Render(helpStyle.Render(m.helpText())),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusLine() string {
	if err := m.coord.Err(); err != nil {
		return errorStyle.Render("✗ " + err.Error())
	}
	if mk, ok := m.mapView.Marker(m.cursor); ok {
		return describeMarker(mk)
	}
	return mutedStyle.Render("No airport selected")
}

func (m Model) viewResults() string {
	switch m.results.Phase() {
	case results.Loading:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.results.Message())
	case results.Ready:
		if m.activePane == PaneResults {
			return m.resultList.View()
		}
		return lipgloss.NewStyle().Faint(true).Render(m.resultList.View())
	case results.Errored:
		msg := errorStyle.Render("✗ " + m.results.Message())
		if retryable(m.results.Err()) {
			msg += "\n" + mutedStyle.Render("Press R to retry")
		}
		return msg
	default:
		return mutedStyle.Render(m.results.Message())
	}
}

func (m Model) helpText() string {
	var keys string
	switch m.activePane {
	case PaneForm:
		keys = "Enter: Search • Tab: Next field • Ctrl+Y: Accept suggestion • Esc: Map • Ctrl+C: Quit"
	case PaneResults:
		keys = "↑/↓: Navigate • C/Enter: Copy booking link • R: Retry • Esc: Map • Q: Quit"
	default:
		keys = "Arrows: Move • Enter: Select • /: Form • Tab: Next pane • R: Retry • Esc: Reset • Q: Quit"
	}
	if m.notice != "" {
		return m.notice + " • " + keys
	}
	return keys
}

// retryable reports whether repeating the failed search may help. Rejected
// input and non-temporary service errors will fail the same way again.
func retryable(err error) bool {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return false
	}
	var terr *queryclient.TransportError
	if errors.As(err, &terr) {
		return terr.Temporary()
	}
	return err != nil
}
