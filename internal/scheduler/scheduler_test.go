package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/flightmap/internal/database"
	"github.com/ngmaloney/flightmap/internal/store"
)

const oneFlight = `[{"departureAirport":{"iataCode":"SEA"},"arrivalAirport":{"iataCode":"JFK"},
	"airline":"Alaska Airlines","departureTime":"2024-03-01T14:30:00"}]`

const twoFlights = `[
	{"departureAirport":{"iataCode":"SEA"},"arrivalAirport":{"iataCode":"JFK"},"airline":"Delta","departureTime":"2024-03-01T08:00:00"},
	{"departureAirport":{"iataCode":"SEA"},"arrivalAirport":{"iataCode":"BOS"},"airline":"JetBlue","departureTime":"2024-03-01T09:00:00"}
]`

type purgeCounter struct {
	purges int
}

func (p *purgeCounter) Get(context.Context, string, any) bool { return false }

func (p *purgeCounter) Set(context.Context, string, any) error { return nil }

func (p *purgeCounter) Purge(context.Context) error {
	p.purges++
	return nil
}

func (p *purgeCounter) Close() error { return nil }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

func TestRunImport(t *testing.T) {
	s := newTestStore(t)
	pc := &purgeCounter{}
	path := filepath.Join(t.TempDir(), "flights.json")
	require.NoError(t, os.WriteFile(path, []byte(oneFlight), 0644))

	sched := New(s, pc, path, "@every 1h")
	ctx := context.Background()

	assert.True(t, sched.runImport(ctx))
	assert.False(t, sched.runImport(ctx), "unchanged file is skipped")
	assert.Equal(t, 1, pc.purges)

	require.NoError(t, os.WriteFile(path, []byte(twoFlights), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.True(t, sched.runImport(ctx))
	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Flights, "import replaces the previous schedule")
	assert.Equal(t, 2, pc.purges)
}

func TestRunImportBadFileKeepsData(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "flights.json")
	require.NoError(t, os.WriteFile(path, []byte(oneFlight), 0644))

	sched := New(s, nil, path, "@every 1h")
	ctx := context.Background()
	require.True(t, sched.runImport(ctx))

	require.NoError(t, os.WriteFile(path, []byte(`[{"broken":`), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.False(t, sched.runImport(ctx))
	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Flights)
}

func TestRunImportMissingFile(t *testing.T) {
	sched := New(newTestStore(t), nil, filepath.Join(t.TempDir(), "missing.json"), "@every 1h")
	assert.False(t, sched.runImport(context.Background()))
}

func TestStartRejectsBadSpec(t *testing.T) {
	sched := New(newTestStore(t), nil, "flights.json", "every now and then")
	assert.Error(t, sched.Start(context.Background()))
}
