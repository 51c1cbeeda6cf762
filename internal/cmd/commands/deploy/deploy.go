package deploy

import (
	"github.com/mitchellh/cli"

	"docclient/internal/cmd/base"
	"docclient/internal/deploy"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect the document server deployment descriptor"
}

func (c *Command) Help() string {
	return `Usage: docclient deploy <subcommand> [options] [path]

  Subcommands work on the descriptor at [path], DEPLOY_DESCRIPTOR, or the
  embedded docserver descriptor, in that order.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// descriptorPath picks the positional path over the configured one.
func descriptorPath(c *base.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return c.Config.Deploy.DescriptorPath
}

func load(c *base.Command, args []string) (*deploy.Descriptor, bool) {
	path := descriptorPath(c, args)
	d, err := deploy.Load(path)
	if err != nil {
		c.UI.Error(err.Error())
		return nil, false
	}
	if path == "" {
		path = "embedded"
	}
	c.Log.Debug("loaded descriptor", "name", d.Name, "source", path)
	return d, true
}
