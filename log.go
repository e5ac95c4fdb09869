package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "elevengui").DataPath("")
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "elevengui.log"), nil
}

// setupLog discards log output unless ELEVENGUI_DEBUG is set, in which case
// it appends to a file so the TUI isn't disturbed.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	if os.Getenv("ELEVENGUI_DEBUG") == "" {
		return func() error { return nil }, nil
	}

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err //nolint:wrapcheck
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}

// applyLogLevel sets the configured level. Debug logging forced by the
// environment wins.
func applyLogLevel(level string) {
	if os.Getenv("ELEVENGUI_DEBUG") != "" {
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Unknown log level", "level", level)
		return
	}
	log.SetLevel(lvl)
}
