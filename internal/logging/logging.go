// Package logging builds the zerolog logger used across yieldwatch.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/yieldwatch/internal/config"
)

// Field names shared by every component, so log queries stay stable.
const (
	FieldRunID    = "run_id"
	FieldSource   = "source"
	FieldMaturity = "maturity"
	FieldStage    = "stage"
	FieldColumn   = "column"
)

// New creates a logger writing to w (stderr when nil). Format "text" renders
// through zerolog.ConsoleWriter; "json" writes one JSON object per line.
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
		}
	}

	if w == nil {
		w = os.Stderr
	}
	switch cfg.Format {
	case "", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// WithRun tags every event of one analysis run with its id.
func WithRun(l zerolog.Logger, runID string) zerolog.Logger {
	return l.With().Str(FieldRunID, runID).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
