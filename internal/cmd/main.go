package cmd

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/mitchellh/cli"

	"docclient/internal/config"
	"docclient/internal/logging"
	"docclient/internal/otel"
	"docclient/internal/version"
)

const serviceName = "docclient"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	cfg := config.Load()
	log := logging.New(cliName, cfg.Log)

	if len(args) == 2 &&
		(args[1] == "-version" ||
			args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	shutdown, err := otel.Init(context.Background(), serviceName, log)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  version.Version,
		Commands: Commands(log, ui, cfg),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}
