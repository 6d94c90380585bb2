// Package logging builds the structured logger shared across moodtune.
package logging

import (
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// New creates a [log.Logger] writing to w with timestamps enabled.
//
// The writer defaults to [os.Stderr]. An unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true, Prefix: "moodtune"})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// RequestLogger returns chi request-logging middleware that writes through l.
func RequestLogger(l *log.Logger) func(http.Handler) http.Handler {
	std := l.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: std, NoColor: true})
}
