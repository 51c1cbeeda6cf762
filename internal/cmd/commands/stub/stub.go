package stub

import (
	"context"
	"flag"
	"fmt"
	"time"

	"docclient/internal/cmd/base"
	"docclient/internal/stub"
)

const shutdownTimeout = 5 * time.Second

type Command struct {
	*base.Command

	flagAddr      string
	flagJWTSecret string
}

func (c *Command) Synopsis() string {
	return "Serve a recording stub of the document API"
}

func (c *Command) Help() string {
	return `Usage: docclient stub [options]

  Serves the three update endpoints, /health, /healthz and /metrics. Each
  update is logged and answered with a document echoing the request. Nothing
  is stored.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("stub", flag.ContinueOnError))
	f.StringVar(&c.flagAddr, "addr", c.Config.Stub.Addr,
		"Listen address. Defaults to STUB_ADDR, then :PORT.")
	f.StringVar(&c.flagJWTSecret, "jwt-secret", "",
		"Require bearer tokens signed with this secret.")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	srv, err := stub.New(stub.Options{
		Log:       c.Log,
		JWTSecret: c.flagJWTSecret,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating stub: %v", err))
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(c.flagAddr) }()

	select {
	case err := <-errCh:
		if err != nil {
			c.UI.Error(fmt.Sprintf("error serving: %v", err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	c.Log.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down: %v", err))
		return 1
	}
	return 0
}
