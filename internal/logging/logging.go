package logging

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// New returns a text logger writing to w at the named level.
// An unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// NewFile opens path for appending and logs there. The TUI owns the
// terminal, so it can't log to stderr. Close the returned file on exit.
func NewFile(path, level string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, level), f, nil
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	return New(io.Discard, "panic")
}
