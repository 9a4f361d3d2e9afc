package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger. format "json" writes one JSON object per
// line; anything else uses the human-readable console writer. Unknown levels
// fall back to info and are reported once.
func NewLogger(level, format string, out io.Writer) zerolog.Logger {
	var w io.Writer = out
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			logger.Warn().Str("invalid_level", level).Msg("invalid log level, using info")
		} else {
			lvl = parsed
		}
	}
	return logger.Level(lvl)
}
