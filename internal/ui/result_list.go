package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/ngmaloney/flightmap/internal/results"
)

// flightItem wraps a result row for use in a list
type flightItem struct {
	row results.Row
}

// FilterValue implements list.Item
func (f flightItem) FilterValue() string {
	return f.row.Flight.Airline + " " + f.row.Flight.FlightNumber + " " + f.row.Flight.Arrival.Code
}

// Title implements list.DefaultItem
func (f flightItem) Title() string {
	fl := f.row.Flight
	return fmt.Sprintf("%s %s  %s → %s", fl.Airline, fl.FlightNumber, fl.Departure.Code, fl.Arrival.Code)
}

// Description implements list.DefaultItem
func (f flightItem) Description() string {
	fl := f.row.Flight
	desc := fmt.Sprintf("%s %s", fl.DayOfWeek, fl.DepartureTime.Format("2006-01-02 15:04"))
	if !fl.ArrivalTime.IsZero() {
		desc += " → " + fl.ArrivalTime.Format("15:04")
	}
	return desc + "  " + f.row.BookingURL
}

func flightItems(rows []results.Row) []list.Item {
	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = flightItem{row: row}
	}
	return items
}

// createResultList creates a list.Model from result rows
func createResultList(rows []results.Row, width, height int) list.Model {
	l := list.New(flightItems(rows), list.NewDefaultDelegate(), width, height)
	l.Title = "Flights"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return l
}
