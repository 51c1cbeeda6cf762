// Package base holds what every docclient command shares.
package base

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"docclient/internal/config"
)

// Command is embedded by every command.
type Command struct {
	Log    hclog.Logger
	UI     cli.Ui
	Config *config.AppConfig
}

// SignalContext is canceled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
