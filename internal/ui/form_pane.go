package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/ngmaloney/flightmap/internal/results"
)

// Form input indexes, in tab order.
const (
	inputDeparture = iota
	inputArrival
	inputDate
	inputAirline
	inputFromHour
	inputToHour
	inputCount
)

var inputLabels = [inputCount]string{"From", "To", "Date", "Airline", "After", "Before"}

func newFormInputs() []textinput.Model {
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 10
		ti.Width = 5
		// tab moves between fields
		ti.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+y"))
		inputs[i] = ti
	}

	inputs[inputDeparture].Placeholder = "SEA"
	inputs[inputDeparture].CharLimit = 3
	inputs[inputDeparture].ShowSuggestions = true
	inputs[inputArrival].Placeholder = "any"
	inputs[inputArrival].CharLimit = 3
	inputs[inputArrival].ShowSuggestions = true
	inputs[inputDate].Placeholder = "YYYY-MM-DD"
	inputs[inputDate].Width = 10
	inputs[inputAirline].Placeholder = "any airline"
	inputs[inputAirline].CharLimit = 60
	inputs[inputAirline].Width = 18
	inputs[inputAirline].ShowSuggestions = true
	inputs[inputFromHour].Placeholder = "0"
	inputs[inputFromHour].CharLimit = 5
	inputs[inputToHour].Placeholder = "24"
	inputs[inputToHour].CharLimit = 5

	return inputs
}

// formFromInputs reads the raw text of every input.
func formFromInputs(inputs []textinput.Model) results.Form {
	return results.Form{
		Departure: inputs[inputDeparture].Value(),
		Arrival:   inputs[inputArrival].Value(),
		Date:      inputs[inputDate].Value(),
		Airline:   inputs[inputAirline].Value(),
		FromHour:  inputs[inputFromHour].Value(),
		ToHour:    inputs[inputToHour].Value(),
	}
}

func renderForm(inputs []textinput.Model, active bool, width int) string {
	fields := make([]string, len(inputs))
	for i, ti := range inputs {
		label := labelStyle.Render(inputLabels[i])
		if active && ti.Focused() {
			label = activeTitleStyle.Render(inputLabels[i])
		}
		fields[i] = label + " " + ti.View()
	}

	style := paneStyle
	if active {
		style = activePaneStyle
	}
	return style.Width(max(width-2, 20)).Render(strings.Join(fields, "  "))
}

// focusInput focuses input i and blurs the rest.
func focusInput(inputs []textinput.Model, i int) {
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
}
