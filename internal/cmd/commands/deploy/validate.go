package deploy

import (
	"flag"
	"fmt"
	"os"

	"docclient/internal/cmd/base"
	"docclient/internal/deploy"
)

type ValidateCommand struct {
	*base.Command

	// Lookup resolves secrets for -check-env. Defaults to os.LookupEnv.
	Lookup deploy.LookupFunc

	flagCheckEnv bool
}

func (c *ValidateCommand) Synopsis() string {
	return "Validate a deployment descriptor"
}

func (c *ValidateCommand) Help() string {
	return `Usage: docclient deploy validate [options] [path]

  Parses the descriptor, rejecting unknown keys, and checks ports, routes,
  environment and health checks.` +
		c.Flags().Help()
}

func (c *ValidateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("deploy validate", flag.ContinueOnError))
	f.BoolVar(&c.flagCheckEnv, "check-env", false,
		"Also require every secret to be set in the local environment.")
	return f
}

func (c *ValidateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	d, ok := load(c.Command, f.Args())
	if !ok {
		return 1
	}

	if c.flagCheckEnv {
		lookup := c.Lookup
		if lookup == nil {
			lookup = os.LookupEnv
		}
		if _, err := d.ResolveEnv(lookup); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	}

	c.UI.Output(fmt.Sprintf("descriptor %q is valid", d.Name))
	return 0
}
