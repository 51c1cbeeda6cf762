package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"docclient/internal/cmd/base"
	"docclient/internal/cmd/commands/deploy"
	"docclient/internal/cmd/commands/preflight"
	"docclient/internal/cmd/commands/probe"
	"docclient/internal/cmd/commands/stub"
	"docclient/internal/cmd/commands/token"
	"docclient/internal/cmd/commands/update"
	"docclient/internal/config"
	"docclient/internal/version"
)

// Commands returns the command table. Each factory gets the same base.
func Commands(log hclog.Logger, ui cli.Ui, cfg *config.AppConfig) map[string]cli.CommandFactory {
	b := &base.Command{Log: log, UI: ui, Config: cfg}

	return map[string]cli.CommandFactory{
		"update-text": func() (cli.Command, error) {
			return &update.TextCommand{Command: b}, nil
		},
		"update-file": func() (cli.Command, error) {
			return &update.FileCommand{Command: b}, nil
		},
		"update-metadata": func() (cli.Command, error) {
			return &update.MetadataCommand{Command: b}, nil
		},
		"token": func() (cli.Command, error) {
			return &token.Command{Command: b}, nil
		},
		"deploy": func() (cli.Command, error) {
			return &deploy.Command{Command: b}, nil
		},
		"deploy validate": func() (cli.Command, error) {
			return &deploy.ValidateCommand{Command: b}, nil
		},
		"deploy render": func() (cli.Command, error) {
			return &deploy.RenderCommand{Command: b}, nil
		},
		"probe": func() (cli.Command, error) {
			return &probe.Command{Command: b}, nil
		},
		"preflight": func() (cli.Command, error) {
			return &preflight.Command{Command: b}, nil
		},
		"stub": func() (cli.Command, error) {
			return &stub.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &versionCommand{ui: ui}, nil
		},
	}
}

type versionCommand struct {
	ui cli.Ui
}

func (c *versionCommand) Synopsis() string { return "Print the docclient version" }

func (c *versionCommand) Help() string { return "Usage: docclient version" }

func (c *versionCommand) Run(_ []string) int {
	c.ui.Output("docclient " + version.Version)
	return 0
}
