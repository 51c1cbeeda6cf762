package probe

import (
	"flag"
	"fmt"
	"time"

	"github.com/mitchellh/cli"

	"docclient/internal/cmd/base"
	"docclient/internal/deploy"
	"docclient/internal/health"
)

type Command struct {
	*base.Command

	flagDescriptor string
	flagNoDelay    bool
	flagInterval   time.Duration
	flagTimeout    time.Duration
}

func (c *Command) Synopsis() string {
	return "Run the descriptor's health check against a running server"
}

func (c *Command) Help() string {
	return `Usage: docclient probe [options] [base-url]

  Polls <base-url> plus the health check path with the descriptor's initial
  delay, interval, timeout and thresholds, and exits 0 once the server is
  healthy or 1 once the failure threshold is reached. The base URL defaults
  to DOCAPI_URL.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("probe", flag.ContinueOnError))
	f.StringVar(&c.flagDescriptor, "descriptor", c.Config.Deploy.DescriptorPath,
		"Descriptor path. Defaults to DEPLOY_DESCRIPTOR, then the embedded one.")
	f.BoolVar(&c.flagNoDelay, "no-delay", false,
		"Skip the initial delay.")
	f.DurationVar(&c.flagInterval, "interval", 0,
		"Override the check interval.")
	f.DurationVar(&c.flagTimeout, "timeout", 0,
		"Override the per-check timeout.")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	args = f.Args()
	if len(args) > 1 {
		c.UI.Error("expected at most one [base-url]")
		return cli.RunResultHelp
	}
	baseURL := c.Config.API.BaseURL
	if len(args) == 1 {
		baseURL = args[0]
	}

	d, err := deploy.Load(c.flagDescriptor)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	hc, ok := d.HealthCheck()
	if !ok {
		c.UI.Error(fmt.Sprintf("descriptor %q has no HTTP health check", d.Name))
		return 1
	}

	p := health.NewProbe(baseURL, hc, c.Log.Named("probe"))
	if c.flagNoDelay {
		p.InitialDelay = 0
	}
	if c.flagInterval > 0 {
		p.Interval = c.flagInterval
	}
	if c.flagTimeout > 0 {
		p.Timeout = c.flagTimeout
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	res, err := p.Run(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s: %v", p.URL, err))
		return 1
	}
	c.UI.Output(fmt.Sprintf("%s is healthy after %d attempt(s)", p.URL, res.Attempts))
	return 0
}
