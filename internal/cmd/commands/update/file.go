package update

import (
	"flag"
	"fmt"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"docclient/internal/client"
	"docclient/internal/cmd/base"
	"docclient/internal/source"
	"docclient/internal/storage"
)

type FileCommand struct {
	*base.Command

	// Fs defaults to the OS filesystem. Store defaults to MinIO when
	// MINIO_ENDPOINT is set.
	Fs    afero.Fs
	Store storage.Storage

	commonFlags
	optionFlags
	flagContentType string
	flagName        string
}

func (c *FileCommand) Synopsis() string {
	return "Update a document's content with a file"
}

func (c *FileCommand) Help() string {
	return `Usage: docclient update-file [options] <document-id> <path | s3://bucket/key>

  Uploads a file to /documents/<document-id>/update_file as multipart form
  data. Local paths are read from disk; s3:// references are read from the
  object store configured with MINIO_ENDPOINT, MINIO_ACCESS_KEY and
  MINIO_SECRET_KEY. The content type is taken from the object store, then the
  file extension, then the file's first bytes.` +
		c.Flags().Help()
}

func (c *FileCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("update-file", flag.ContinueOnError))
	c.commonFlags.register(f, c.Command)
	c.optionFlags.register(f)
	f.StringVar(&c.flagContentType, "content-type", "",
		"Override the detected content type of the file part.")
	f.StringVar(&c.flagName, "name", "",
		"Override the filename sent with the file part.")
	return f
}

func (c *FileCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	args = f.Args()
	if len(args) != 2 {
		c.UI.Error("expected <document-id> and <path | s3://bucket/key>")
		return cli.RunResultHelp
	}
	documentID, ref := args[0], args[1]

	opts, err := c.options()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	store, err := c.store()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing object storage: %v", err))
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	obj, err := source.NewOpener(c.Fs, store).Open(ctx, ref)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer obj.Body.Close()

	file := client.File{Name: obj.Name, ContentType: obj.ContentType, Content: obj.Body}
	if c.flagName != "" {
		file.Name = c.flagName
	}
	if c.flagContentType != "" {
		file.ContentType = c.flagContentType
	}
	c.Log.Debug("opened file", "ref", ref, "name", file.Name, "content_type", file.ContentType)

	s, err := newSession(c.Command, c.flagURL)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	doc, err := s.client.UpdateFile(ctx, documentID, file, c.flagToken, opts)
	return s.finish(ctx, doc, err)
}

func (c *FileCommand) store() (storage.Storage, error) {
	if c.Store != nil {
		return c.Store, nil
	}
	if c.Config.MinIO.Endpoint == "" {
		return nil, nil
	}
	return storage.NewMinIO(c.Config.MinIO)
}
