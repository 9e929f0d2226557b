package internal

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const DefaultLogLevel = "warn"

// NewLogger returns a human-readable logger writing to w. An empty level
// means DefaultLogLevel.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = DefaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
