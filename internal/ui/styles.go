package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	colorPrimary   = lipgloss.Color("#00BFFF") // Deep sky blue
	colorSecondary = lipgloss.Color("#87CEEB") // Sky blue
	colorDanger    = lipgloss.Color("#FF6B6B") // Red for errors
	colorWarning   = lipgloss.Color("#FFD93D") // Yellow for the departure
	colorSuccess   = lipgloss.Color("#6BCF7F") // Green for destinations
	colorMuted     = lipgloss.Color("#6C757D") // Gray
	colorDim       = lipgloss.Color("#3A3F44")
	colorBorder    = lipgloss.Color("#4A90E2") // Border blue

	// Title styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	activeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary)

	// Pane styles. The map pane has no padding so grid cells map 1:1 to
	// screen cells inside the border.
	mapPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	activeMapPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(colorPrimary)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	activePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	// Content styles
	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// Marker styles
	neutralMarkerStyle = lipgloss.NewStyle().
				Foreground(colorSecondary)

	departureMarkerStyle = lipgloss.NewStyle().
				Foreground(colorWarning).
				Bold(true)

	destinationMarkerStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	unavailableMarkerStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	cursorStyle = lipgloss.NewStyle().
			Reverse(true).
			Bold(true)

	// Help text style
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Utility styles
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)
)
