package preflight

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"docclient/internal/cmd/base"
	"docclient/internal/deploy"
	"docclient/internal/preflight"
)

type Command struct {
	*base.Command

	// Lookup resolves descriptor secrets. Defaults to os.LookupEnv.
	Lookup deploy.LookupFunc

	flagDescriptor string
}

func (c *Command) Synopsis() string {
	return "Check that the server's Postgres and Redis are reachable"
}

func (c *Command) Help() string {
	return `Usage: docclient preflight [options]

  Resolves the descriptor environment, secrets included, and connects to the
  Postgres database at POSTGRES_URI (with PGPASSWORD) and the Redis server at
  REDIS_HOST:REDIS_PORT. Every failure is reported.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("preflight", flag.ContinueOnError))
	f.StringVar(&c.flagDescriptor, "descriptor", c.Config.Deploy.DescriptorPath,
		"Descriptor path. Defaults to DEPLOY_DESCRIPTOR, then the embedded one.")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	d, err := deploy.Load(c.flagDescriptor)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	lookup := c.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env, err := d.ResolveEnv(lookup)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	checker, err := preflight.FromEnv(env, c.Log.Named("preflight"))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	if err := checker.Run(ctx); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output("all checks passed: " + strings.Join(checker.Names(), ", "))
	return 0
}
