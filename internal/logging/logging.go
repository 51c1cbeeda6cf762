// Package logging builds the hclog logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"docclient/internal/config"
)

// New returns a logger named name. JSON lines are the default format; "text"
// switches to hclog's human-readable output.
func New(name string, cfg config.LogConfig) hclog.Logger {
	return NewWithWriter(name, cfg, os.Stderr)
}

// NewWithWriter is New with an explicit output, for tests.
func NewWithWriter(name string, cfg config.LogConfig, w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     w,
		JSONFormat: !strings.EqualFold(cfg.Format, "text"),
	})
}
