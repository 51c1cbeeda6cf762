package deploy

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"docclient/internal/cmd/base"
	"docclient/internal/deploy"
)

const masked = "********"

type RenderCommand struct {
	*base.Command

	// Lookup resolves secrets for -env. Defaults to os.LookupEnv.
	Lookup deploy.LookupFunc

	flagEnv         bool
	flagShowSecrets bool
}

func (c *RenderCommand) Synopsis() string {
	return "Print a normalized descriptor or its resolved environment"
}

func (c *RenderCommand) Help() string {
	return `Usage: docclient deploy render [options] [path]

  Prints the validated descriptor as YAML. With -env, prints the resolved
  environment as KEY=VALUE lines instead, with secrets read from the local
  environment under their own keys.` +
		c.Flags().Help()
}

func (c *RenderCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("deploy render", flag.ContinueOnError))
	f.BoolVar(&c.flagEnv, "env", false,
		"Print the resolved environment instead of the descriptor.")
	f.BoolVar(&c.flagShowSecrets, "show-secrets", false,
		"Print secret values instead of masking them. Only with -env.")
	return f
}

func (c *RenderCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	d, ok := load(c.Command, f.Args())
	if !ok {
		return 1
	}

	if !c.flagEnv {
		out, err := deploy.Marshal(d)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(strings.TrimRight(string(out), "\n"))
		return 0
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

	secret := make(map[string]bool)
	for _, e := range d.Env {
		secret[e.Key] = e.Secret != ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := env[k]
		if secret[k] && !c.flagShowSecrets {
			v = masked
		}
		c.UI.Output(k + "=" + v)
	}
	return 0
}
