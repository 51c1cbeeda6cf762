package update

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"docclient/internal/cmd/base"
)

type TextCommand struct {
	*base.Command

	// Fs and Stdin default to the OS.
	Fs    afero.Fs
	Stdin io.Reader

	commonFlags
	optionFlags
	flagFilename string
	flagTextFile string
}

func (c *TextCommand) Synopsis() string {
	return "Update a document's content with text"
}

func (c *TextCommand) Help() string {
	return `Usage: docclient update-text [options] <document-id> [text]

  Sends text to /documents/<document-id>/update_text. The text is taken from
  the argument, from -text-file, or from stdin when the argument is "-".
  Metadata and rules are JSON-encoded into strings before sending.` +
		c.Flags().Help()
}

func (c *TextCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update-text", flag.ContinueOnError))
	c.commonFlags.register(f, c.Command)
	c.optionFlags.register(f)
	f.StringVar(&c.flagFilename, "filename", "",
		"Filename to associate with the text. Omitted when empty.")
	f.StringVar(&c.flagTextFile, "text-file", "",
		"Read the text from this file instead of an argument.")
	return f
}

func (c *TextCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	args = f.Args()

	if len(args) < 1 || len(args) > 2 {
		c.UI.Error("expected <document-id> and optionally [text]")
		return cli.RunResultHelp
	}
	documentID := args[0]

	text, err := c.readText(args[1:])
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	opts, err := c.options()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	opts.Filename = c.flagFilename

	s, err := newSession(c.Command, c.flagURL)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	ctx, cancel := base.SignalContext()
	defer cancel()

	doc, err := s.client.UpdateText(ctx, documentID, text, c.flagToken, opts)
	return s.finish(ctx, doc, err)
}

func (c *TextCommand) readText(args []string) (string, error) {
	switch {
	case c.flagTextFile != "" && len(args) > 0:
		return "", fmt.Errorf("give either [text] or -text-file, not both")
	case c.flagTextFile != "":
		fs := c.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		b, err := afero.ReadFile(fs, c.flagTextFile)
		if err != nil {
			return "", fmt.Errorf("error reading text file: %w", err)
		}
		return string(b), nil
	case len(args) == 0:
		return "", fmt.Errorf("no text given; pass [text], \"-\" or -text-file")
	case args[0] == "-":
		in := c.Stdin
		if in == nil {
			in = os.Stdin
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("error reading stdin: %w", err)
		}
		return string(b), nil
	default:
		return args[0], nil
	}
}
