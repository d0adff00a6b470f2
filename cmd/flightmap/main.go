package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/flightmap/internal/config"
	"github.com/ngmaloney/flightmap/internal/queryclient"
	"github.com/ngmaloney/flightmap/internal/ui"
)

func main() {
	cfg := config.LoadClient()
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Query service base URL")
	flag.StringVar(&cfg.BookingProvider, "provider", cfg.BookingProvider, "Booking site host for deep-links (e.g., www.kayak.com)")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file; the terminal is owned by the UI")
	flag.Parse()

	f, err := tea.LogToFile(cfg.LogFile, "flightmap")
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	client := queryclient.New(cfg.ServerURL, cfg.RequestTimeout)
	model := ui.NewModel(client, cfg.BookingProvider, cfg.RequestTimeout)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
