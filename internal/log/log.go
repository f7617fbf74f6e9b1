package log

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
)

// NewSlogLogger creates a new slog logger writing to stdout and installs it as the default.
func NewSlogLogger(cfg config.Log) *slog.Logger {
	log := New(os.Stdout, cfg)
	slog.SetDefault(log)

	return log
}

// New creates a slog logger writing to w. Text format uses tint with errors
// highlighted, anything else is json. Configured labels are attached to the
// returned logger in key order.
func New(w io.Writer, cfg config.Log) *slog.Logger {
	var handler slog.Handler

	if cfg.Format == config.LogFormatText {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level,
			AddSource:  cfg.AddSource,
			TimeFormat: time.RFC3339,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
				return a
			},
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})
	}

	if len(cfg.Labels) > 0 {
		attrs := make([]slog.Attr, 0, len(cfg.Labels))
		for _, k := range slices.Sorted(maps.Keys(cfg.Labels)) {
			attrs = append(attrs, slog.String(k, cfg.Labels[k]))
		}
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(contextHandler{next: handler})
}
