package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/flightmap/internal/mapview"
	"github.com/ngmaloney/flightmap/internal/models"
	"github.com/ngmaloney/flightmap/internal/results"
	"github.com/ngmaloney/flightmap/internal/signals"
)

// fakeService answers from fixed tables keyed by departure code.
type fakeService struct {
	flights      map[string][]models.Flight
	destinations map[string][]models.AirportRef
	err          error
	calls        int
}

func (f *fakeService) Flights(_ context.Context, q models.SearchQuery) ([]models.Flight, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Flight
	for _, fl := range f.flights[q.Departure] {
		if q.Arrival == "" || fl.Arrival.Code == q.Arrival {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeService) Destinations(_ context.Context, code string) ([]models.AirportRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.destinations[code], nil
}

func testFlight(dep, arr, departs string) models.Flight {
	return models.Flight{
		Departure:     models.AirportRef{Code: dep},
		Arrival:       models.AirportRef{Code: arr},
		Airline:       "Alaska Airlines",
		DepartureTime: models.MustTimestamp(departs),
	}
}

func newService() *fakeService {
	return &fakeService{
		flights: map[string][]models.Flight{
			"SEA": {
				testFlight("SEA", "LAX", "2024-03-01T19:00:00"),
				testFlight("SEA", "JFK", "2024-03-01T07:00:00"),
				testFlight("SEA", "BOS", "2024-03-01T11:00:00"),
				testFlight("SEA", "JFK", "2024-03-01T14:30:00"),
			},
			"BOS": {
				testFlight("BOS", "LHR", "2024-03-01T21:00:00"),
			},
		},
		destinations: map[string][]models.AirportRef{
			"SEA": {{Code: "JFK"}, {Code: "BOS"}, {Code: "LAX"}},
			"BOS": {{Code: "LHR"}},
		},
	}
}

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	m := mapview.New(120, 40)
	m.RenderAll([]models.Airport{
		{Code: "SEA", Longitude: -122.31, Latitude: 47.45},
		{Code: "JFK", Longitude: -73.78, Latitude: 40.64},
		{Code: "BOS", Longitude: -71.01, Latitude: 42.36},
		{Code: "LAX", Longitude: -118.41, Latitude: 33.94},
		{Code: "LHR", Longitude: -0.45, Latitude: 51.47},
	})
	return New(m, results.NewView(""))
}

func run(t *testing.T, c *Coordinator, svc QueryService, req *Request) {
	t.Helper()
	require.NotNil(t, req)
	c.Resolve(Execute(context.Background(), svc, *req))
}

func TestClickDepartureDiscoversDestinations(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	req := c.ClickMarker("SEA")
	require.NotNil(t, req)
	assert.Equal(t, KindDestinations, req.Kind)
	assert.Equal(t, "SEA", req.Query.Departure)
	assert.Equal(t, DepartureSelected, c.Phase())
	assert.Equal(t, mapview.Departure, c.Map.State("SEA"))

	run(t, c, svc, req)
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("JFK", "BOS", "LAX")))
	assert.Equal(t, mapview.Unavailable, c.Map.State("LHR"))
	assert.Equal(t, DepartureSelected, c.Phase())
}

// Scenario: departure only, results sorted, map shows the distinct arrivals.
func TestSearchDepartureOnly(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	req, err := c.SubmitForm(results.Form{Departure: "sea"})
	require.NoError(t, err)
	assert.Equal(t, KindFlights, req.Kind)
	assert.Equal(t, DestinationsShown, c.Phase())
	assert.Equal(t, results.Loading, c.Results.Phase())

	run(t, c, svc, req)
	require.Equal(t, results.Ready, c.Results.Phase())
	assert.Equal(t, FlightsShown, c.Phase())

	rows := c.Results.Rows()
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Flight.DepartureTime.Before(rows[i-1].Flight.DepartureTime), "rows out of order at %d", i)
	}

	assert.Equal(t, mapview.Departure, c.Map.State("SEA"))
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("JFK", "BOS", "LAX")))
}

// Scenario: blank departure is rejected locally.
func TestSubmitWithoutDeparture(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	req, err := c.SubmitForm(results.Form{Departure: "  ", Arrival: "JFK"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "departure", verr.Field)
	assert.Nil(t, req)
	assert.Zero(t, svc.calls)
	assert.Equal(t, results.Errored, c.Results.Phase())
	assert.Equal(t, Idle, c.Phase())
}

// Scenario: zero matches leave only the departure highlighted.
func TestSearchNoMatches(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	run(t, c, svc, c.ClickMarker("SEA"))
	req, err := c.SubmitForm(results.Form{Departure: "SEA", Arrival: "LHR"})
	require.NoError(t, err)
	run(t, c, svc, req)

	assert.Equal(t, results.Empty, c.Results.Phase())
	assert.Equal(t, mapview.Departure, c.Map.State("SEA"))
	assert.Empty(t, c.Map.Available())
}

// Scenario: a transport failure shows an error and leaves the map alone.
func TestSearchFailureLeavesMap(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	run(t, c, svc, c.ClickMarker("SEA"))
	before := c.Map.Markers()

	req, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	svc.err = errors.New("server returned 500: boom")
	run(t, c, svc, req)

	assert.Equal(t, results.Errored, c.Results.Phase())
	assert.Contains(t, c.Results.Message(), "500")
	assert.Equal(t, DepartureSelected, c.Phase())
	require.Error(t, c.Err())
	assert.ErrorIs(t, c.Err(), svc.err)
	assert.Equal(t, before, c.Map.Markers())
}

func TestDestinationLookupFailure(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()
	svc.err = errors.New("connection refused")

	run(t, c, svc, c.ClickMarker("SEA"))
	assert.Error(t, c.Err())
	assert.Equal(t, mapview.Departure, c.Map.State("SEA"))
	assert.Equal(t, mapview.Neutral, c.Map.State("JFK"))
}

func TestStaleFlightsDoNotClobber(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	q1, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	q2, err := c.SubmitForm(results.Form{Departure: "BOS"})
	require.NoError(t, err)

	// q2 resolves first, then the slow q1.
	run(t, c, svc, q2)
	run(t, c, svc, q1)

	rows := c.Results.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "BOS", rows[0].Flight.Departure.Code)
	assert.Equal(t, mapview.Departure, c.Map.State("BOS"))
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("LHR")))
}

func TestStaleDestinationsDoNotClobber(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	first := c.ClickMarker("SEA")
	second := c.ClickMarker("BOS")
	require.NotNil(t, second)

	run(t, c, svc, second)
	run(t, c, svc, first)

	assert.Equal(t, "BOS", c.Map.Departure())
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("LHR")))
}

func TestNewDepartureSupersedesSearch(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	search, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	lookup := c.ClickMarker("SEA")
	require.NotNil(t, lookup)

	run(t, c, svc, search)
	assert.Equal(t, results.Idle, c.Results.Phase())

	run(t, c, svc, lookup)
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("JFK", "BOS", "LAX")))
}

func TestSignalOrder(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	var seen []string
	c.Subscribe(func(s signals.Signal) {
		switch s.(type) {
		case signals.FlightsRendered:
			// The list is already rendered when the map is notified.
			assert.Equal(t, results.Ready, c.Results.Phase())
			assert.Equal(t, mapview.Neutral, c.Map.State("JFK"))
		case signals.DestinationsAvailable:
			// Handlers registered by New run first, so the map is applied.
			assert.Equal(t, mapview.AvailableDestination, c.Map.State("JFK"))
		}
		seen = append(seen, s.String())
	})

	req := c.ClickMarker("SEA")
	assert.Equal(t, []string{"departureChosen(SEA)"}, seen)

	seen = nil
	search, err := c.SubmitForm(results.Form{Departure: "SEA", Arrival: "JFK"})
	require.NoError(t, err)
	run(t, c, svc, search)
	run(t, c, svc, req)

	assert.Equal(t, []string{
		"flightsRendered(#2, 2 flights)",
		"destinationsAvailable(#2, SEA, [JFK])",
	}, seen)
}

func TestClickDestinationSearches(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	run(t, c, svc, c.ClickMarker("SEA"))
	search, err := c.SubmitForm(results.Form{Departure: "SEA", Date: "2024-03-01", Airline: "Alaska Airlines"})
	require.NoError(t, err)
	run(t, c, svc, search)

	req := c.ClickMarker("JFK")
	require.NotNil(t, req)
	assert.Equal(t, KindFlights, req.Kind)
	assert.Equal(t, "JFK", req.Query.Arrival)
	assert.Equal(t, "2024-03-01", req.Query.Date)
	assert.Equal(t, "Alaska Airlines", req.Query.Airline)

	run(t, c, svc, req)
	assert.Len(t, c.Results.Rows(), 2)
	assert.True(t, c.Map.Available().Equal(models.NewCodeSet("JFK")))
	assert.Equal(t, FlightsShown, c.Phase())
}

func TestClickUnavailableIsNoop(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	run(t, c, svc, c.ClickMarker("SEA"))
	assert.Nil(t, c.ClickMarker("LHR"))
	assert.Equal(t, "SEA", c.Departure())
}

func TestRetry(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()
	assert.Nil(t, c.Retry())

	req, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	svc.err = errors.New("timeout")
	run(t, c, svc, req)
	require.Equal(t, results.Errored, c.Results.Phase())

	svc.err = nil
	retry := c.Retry()
	require.NotNil(t, retry)
	assert.Greater(t, retry.Seq, req.Seq)
	run(t, c, svc, retry)
	assert.Equal(t, results.Ready, c.Results.Phase())
}

func TestRetryAfterNewDeparture(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()
	svc.err = errors.New("connection refused")

	run(t, c, svc, c.ClickMarker("SEA"))
	req, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	run(t, c, svc, req)
	require.Equal(t, results.Errored, c.Results.Phase())

	// LAX is still neutral because the SEA lookup failed
	lookup := c.ClickMarker("LAX")
	require.NotNil(t, lookup)
	assert.Nil(t, c.Retry(), "the SEA search must not be repeated for LAX")
	assert.Equal(t, "LAX", c.Departure())
	assert.Equal(t, "LAX", c.Map.Departure())

	svc.err = nil
	run(t, c, svc, lookup)
	req, err = c.SubmitForm(results.Form{Departure: "LAX"})
	require.NoError(t, err)
	svc.err = errors.New("timeout")
	run(t, c, svc, req)

	svc.err = nil
	retry := c.Retry()
	require.NotNil(t, retry)
	assert.Equal(t, "LAX", retry.Query.Departure)
}

func TestRetryKeepsQueryForSameDeparture(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	run(t, c, svc, c.ClickMarker("SEA"))
	req, err := c.SubmitForm(results.Form{Departure: "SEA", Airline: "Alaska Airlines"})
	require.NoError(t, err)
	run(t, c, svc, req)

	// Clicking the departure again widens the view but keeps the filters
	run(t, c, svc, c.ClickMarker("SEA"))
	retry := c.Retry()
	require.NotNil(t, retry)
	assert.Equal(t, "Alaska Airlines", retry.Query.Airline)
}

func TestInvalidSubmitDuringSearch(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	req, err := c.SubmitForm(results.Form{Departure: "SEA"})
	require.NoError(t, err)
	require.Equal(t, DestinationsShown, c.Phase())

	next, err := c.SubmitForm(results.Form{Departure: "SEA", Date: "March 1st"})
	require.Error(t, err)
	assert.Nil(t, next)

	var ve *models.ValidationError
	assert.ErrorAs(t, c.Err(), &ve)
	assert.Equal(t, DepartureSelected, c.Phase())
	assert.Equal(t, results.Errored, c.Results.Phase())

	// The abandoned search can no longer resolve the list
	run(t, c, svc, req)
	assert.Equal(t, results.Errored, c.Results.Phase())
	assert.Equal(t, DepartureSelected, c.Phase())
}

func TestInvalidSubmitWhileIdle(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.SubmitForm(results.Form{})
	require.Error(t, err)
	assert.Equal(t, Idle, c.Phase())
}

func TestFormDepartureWithoutMarker(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()
	svc.flights["ORD"] = []models.Flight{testFlight("ORD", "JFK", "2024-03-01T09:00:00")}

	req, err := c.SubmitForm(results.Form{Departure: "ORD"})
	require.NoError(t, err)
	run(t, c, svc, req)
	require.Equal(t, mapview.AvailableDestination, c.Map.State("JFK"))

	lookup := c.ClickMarker("SEA")
	require.NotNil(t, lookup, "an unplaced departure must not lock the map")
	assert.Equal(t, KindDestinations, lookup.Kind)
	assert.Equal(t, "SEA", c.Departure())
	assert.Equal(t, mapview.Departure, c.Map.State("SEA"))
}

func TestReset(t *testing.T) {
	c := newCoordinator(t)
	svc := newService()

	lookup := c.ClickMarker("SEA")
	c.Reset()
	run(t, c, svc, lookup)

	assert.Equal(t, Idle, c.Phase())
	assert.Empty(t, c.Departure())
	for _, m := range c.Map.Markers() {
		assert.Equal(t, mapview.Neutral, m.State, m.Code())
	}
}
