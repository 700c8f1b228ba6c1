package engine

import (
	"log/slog"

	"github.com/dshills/tabstop/internal/ctxlog"
	"github.com/dshills/tabstop/internal/engine/history"
)

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = history.DefaultMaxEntries

type config struct {
	text         string
	historyLimit int
	logger       *slog.Logger
}

func defaultConfig() config {
	return config{
		historyLimit: DefaultHistoryLimit,
		logger:       ctxlog.Discard(),
	}
}

// Option configures an Engine during creation.
type Option func(*config)

// WithText sets the initial content of the engine.
func WithText(text string) Option {
	return func(c *config) {
		c.text = text
	}
}

// WithHistoryLimit sets the maximum number of undo units.
func WithHistoryLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// WithLogger sets the logger for command diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
