package lmg

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns the key/value logger used across a run.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "lmg",
		ReportTimestamp: true,
	})
}
