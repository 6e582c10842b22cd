package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/gosight/gosight/tracker/internal/config"
)

// New builds the tracker logger. A disabled config yields a no-op logger;
// otherwise messages below the configured level are dropped.
func New(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if !cfg.Enabled {
		return zerolog.Nop()
	}
	if out == nil {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("component", "tracker").Logger()
}

// Setup configures the global logger the way the command mains expect.
func Setup(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if lvl, err := zerolog.ParseLevel(level); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
}
