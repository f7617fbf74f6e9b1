package config

import (
	"fmt"
	"log/slog"
	"strings"
)

type Log struct {
	Format    LogFormat  `env:"LOG_FORMAT" envDefault:"json"`
	Level     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AddSource bool       `env:"LOG_ADD_SOURCE" envDefault:"false"`

	// Labels are attached to every record, e.g. LOG_LABELS=env:prod,region:eu.
	Labels map[string]string `env:"LOG_LABELS"`
}

// LogFormat selects the slog handler: machine readable json for deployments
// or colored text for a terminal.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// UnmarshalText implements [encoding.TextUnmarshaler]. Matching is case
// insensitive and "console" is accepted for text.
func (f *LogFormat) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "json":
		*f = LogFormatJSON
	case "text", "console":
		*f = LogFormatText
	default:
		return fmt.Errorf("unknown log format: %q", text)
	}
	return nil
}
