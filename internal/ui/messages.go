package ui

import (
	"github.com/ngmaloney/flightmap/internal/coordinator"
	"github.com/ngmaloney/flightmap/internal/models"
)

// Message types for async operations

// airportsLoadedMsg is sent when the airport listing has been fetched
type airportsLoadedMsg struct {
	airports []models.Airport
	err      error
}

// airlinesLoadedMsg is sent when the airline names have been fetched
type airlinesLoadedMsg struct {
	airlines []string
	err      error
}

// outcomeMsg carries a finished coordinator request back to the UI loop
type outcomeMsg struct {
	outcome coordinator.Outcome
}

// copiedMsg is sent after a booking link was written to the clipboard
type copiedMsg struct {
	url string
	err error
}
