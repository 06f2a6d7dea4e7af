package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog routes logging to a file when REVOICE_LOGFILE is set and
// silences it otherwise, so log lines never tear the progress view.
func setupLog() (func() error, error) {
	if logFile := os.Getenv("REVOICE_LOGFILE"); logFile != "" {
		f, err := tea.LogToFileWith(logFile, "revoice", log.Default())
		if err != nil {
			return nil, err
		}
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
