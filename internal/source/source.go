// Package source opens the payload of a file update from a local path or an
// s3://bucket/key reference.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"docclient/internal/storage"
)

const schemeS3 = "s3://"

var (
	ErrInvalidRef    = errors.New("invalid file reference")
	ErrNoObjectStore = errors.New("object storage is not configured")
)

// Object is an opened payload. The caller closes Body.
type Object struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Opener resolves file references.
type Opener struct {
	fs    afero.Fs
	store storage.Storage
}

// NewOpener reads local paths through fs and s3:// references through store.
// store may be nil when no object storage is configured.
func NewOpener(fs afero.Fs, store storage.Storage) *Opener {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Opener{fs: fs, store: store}
}

// Open resolves ref.
func (o *Opener) Open(ctx context.Context, ref string) (*Object, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	if strings.HasPrefix(ref, schemeS3) {
		return o.openObject(ctx, strings.TrimPrefix(ref, schemeS3))
	}
	return o.openLocal(ref)
}

func (o *Opener) openObject(ctx context.Context, bucketKey string) (*Object, error) {
	if o.store == nil {
		return nil, ErrNoObjectStore
	}
	bucket, key, ok := strings.Cut(bucketKey, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: want s3://bucket/key, got s3://%s", ErrInvalidRef, bucketKey)
	}

	body, info, err := o.store.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	name := path.Base(key)
	ct := info.ContentType
	if ct == "" {
		ct = byExtension(name)
	}
	return &Object{Name: name, ContentType: ct, Body: body}, nil
}

func (o *Opener) openLocal(p string) (*Object, error) {
	f, err := o.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidRef, p)
	}

	name := filepath.Base(p)
	ct := byExtension(name)
	var body io.ReadCloser = f
	if ct == "" {
		br := bufio.NewReader(f)
		head, _ := br.Peek(512)
		ct = http.DetectContentType(head)
		body = readCloser{Reader: br, Closer: f}
	}
	return &Object{Name: name, ContentType: ct, Body: body}, nil
}

func byExtension(name string) string {
	return mime.TypeByExtension(filepath.Ext(name))
}

type readCloser struct {
	io.Reader
	io.Closer
}
