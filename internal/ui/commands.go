package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/flightmap/internal/coordinator"
	"github.com/ngmaloney/flightmap/internal/models"
)

// Client is the query service as seen by the terminal UI.
type Client interface {
	coordinator.QueryService
	Airports(ctx context.Context, search string, limit int) ([]models.Airport, error)
	Airlines(ctx context.Context) ([]string, error)
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// loadAirports fetches every airport for the map in the background
func loadAirports(client Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		airports, err := client.Airports(ctx, "", models.MaxAirportLimit)
		return airportsLoadedMsg{airports: airports, err: err}
	}
}

// loadAirlines fetches the airline names offered as form suggestions
func loadAirlines(client Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		airlines, err := client.Airlines(ctx)
		return airlinesLoadedMsg{airlines: airlines, err: err}
	}
}

// runRequest executes a coordinator request off the UI loop. A nil request
// yields a nil command.
func runRequest(client Client, timeout time.Duration, req *coordinator.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	r := *req
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return outcomeMsg{outcome: coordinator.Execute(ctx, client, r)}
	}
}

// copyLink writes url to the system clipboard
func copyLink(url string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{url: url, err: writeClipboard(url)}
	}
}
