package update

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"

	"docclient/internal/cmd/base"
)

type MetadataCommand struct {
	*base.Command

	commonFlags
}

func (c *MetadataCommand) Synopsis() string {
	return "Replace a document's metadata"
}

func (c *MetadataCommand) Help() string {
	return `Usage: docclient update-metadata [options] <document-id> [metadata-json]

  Sends {"metadata": <metadata-json>} to /documents/<document-id>/update_metadata.
  The metadata must be a JSON object and is embedded as an object, not a
  string. Without [metadata-json] an empty object is sent.` +
		c.Flags().Help()
}

func (c *MetadataCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update-metadata", flag.ContinueOnError))
	c.commonFlags.register(f, c.Command)
	return f
}

func (c *MetadataCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	args = f.Args()
	if len(args) < 1 || len(args) > 2 {
		c.UI.Error("expected <document-id> and optionally [metadata-json]")
		return cli.RunResultHelp
	}
	documentID := args[0]

	var metadata map[string]any
	if len(args) == 2 {
		var v base.JSONFlag
		if err := v.Set(args[1]); err != nil {
			c.UI.Error(fmt.Sprintf("error parsing metadata: %v", err))
			return 1
		}
		md, ok := v.Value.(map[string]any)
		if !ok {
			c.UI.Error("metadata must be a JSON object")
			return 1
		}
		metadata = md
	}

	s, err := newSession(c.Command, c.flagURL)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	ctx, cancel := base.SignalContext()
	defer cancel()

	doc, err := s.client.UpdateMetadata(ctx, documentID, metadata, c.flagToken)
	return s.finish(ctx, doc, err)
}
