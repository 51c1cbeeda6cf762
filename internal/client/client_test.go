package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docclient/internal/metrics"
	"docclient/internal/model"
)

const documentJSON = `{"external_id":"x","content_type":"text/plain","metadata":{"a":1},"chunk_ids":["c1"],"extra":{"nested":[1,2]}}`

type capturedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *recorder) last(t *testing.T) capturedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request reached the server")
	return r.requests[len(r.requests)-1]
}

func (r *recorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

// newServer answers every request with status and body and records it.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, capturedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     b,
		})
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func textFile(content string) File {
	return File{Name: "notes.txt", ContentType: "text/plain", Content: strings.NewReader(content)}
}

// operations lists every update call so the shared result policy can
// be checked in one table.
var operations = []struct {
	name string
	path string
	call func(c *Client) (*model.Document, error)
}{
	{
		name: OpUpdateText,
		path: "/documents/doc-1/update_text",
		call: func(c *Client) (*model.Document, error) {
			return c.UpdateText(context.Background(), "doc-1", "hello", "tok", nil)
		},
	},
	{
		name: OpUpdateFile,
		path: "/documents/doc-1/update_file",
		call: func(c *Client) (*model.Document, error) {
			return c.UpdateFile(context.Background(), "doc-1", textFile("hello"), "tok", nil)
		},
	},
	{
		name: OpUpdateMetadata,
		path: "/documents/doc-1/update_metadata",
		call: func(c *Client) (*model.Document, error) {
			return c.UpdateMetadata(context.Background(), "doc-1", map[string]any{"a": 1}, "tok")
		},
	},
}

func TestClient_Success(t *testing.T) {
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, documentJSON)
			c := New(srv.URL)

			doc, err := op.call(c)
			require.NoError(t, err)

			assert.Equal(t, "x", doc.ExternalID)
			assert.JSONEq(t, documentJSON, string(doc.Raw()))

			fields, err := doc.Fields()
			require.NoError(t, err)
			var want map[string]any
			require.NoError(t, json.Unmarshal([]byte(documentJSON), &want))
			assert.Equal(t, want, fields)

			req := rec.last(t)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, op.path, req.Path)
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		})
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusNotFound, "not found")
			c := New(srv.URL)

			doc, err := op.call(c)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Contains(t, err.Error(), "Not Found")
			assert.Contains(t, err.Error(), "not found")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
			assert.Equal(t, "404 Not Found", apiErr.Status)
			assert.Equal(t, "not found", apiErr.Body)
			assert.Equal(t, op.name, apiErr.Operation)
			assert.Equal(t, "doc-1", apiErr.DocumentID)
		})
	}
}

func TestClient_TransportErrorReturnedUnchanged(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, documentJSON)
	srv.Close()

	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			c := New(srv.URL)

			_, err := op.call(c)
			require.Error(t, err)

			var urlErr *url.Error
			assert.True(t, errors.As(err, &urlErr), "got %T", err)
			var apiErr *APIError
			assert.False(t, errors.As(err, &apiErr))
		})
	}
}

func TestClient_DecodeErrorReturnedUnchanged(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "definitely not json"},
		{name: "trailing data", body: `{"external_id":"x"} trailing`},
		{name: "second value", body: `{"external_id":"x"}{"external_id":"y"}`},
		{name: "truncated", body: `{"external_id":"x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusOK, tt.body)
			c := New(srv.URL)

			doc, err := c.UpdateText(context.Background(), "doc-1", "hello", "", nil)
			require.Error(t, err)
			assert.Nil(t, doc)

			var syntaxErr *json.SyntaxError
			assert.True(t, errors.As(err, &syntaxErr), "got %T", err)
			var apiErr *APIError
			assert.False(t, errors.As(err, &apiErr))
		})
	}
}

func TestClient_OffShapeDocumentAccepted(t *testing.T) {
	bodies := []struct {
		name string
		body string
	}{
		{name: "numeric chunk ids", body: `{"external_id":"x","chunk_ids":[1,2]}`},
		{name: "owner as a string", body: `{"external_id":"x","owner":"alice"}`},
		{name: "quoted version", body: `{"external_id":"x","storage_files":[{"bucket":"b","key":"k","version":"2"}]}`},
		{name: "top-level array", body: `[{"external_id":"x"}]`},
	}
	for _, op := range operations {
		for _, tt := range bodies {
			t.Run(op.name+"/"+tt.name, func(t *testing.T) {
				srv, _ := newServer(t, http.StatusOK, tt.body)
				c := New(srv.URL)

				doc, err := op.call(c)
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.JSONEq(t, tt.body, string(doc.Raw()))
			})
		}
	}
}

func TestClient_EmptyDocumentID(t *testing.T) {
	c := New("http://127.0.0.1:1")

	_, err := c.UpdateText(context.Background(), "", "hello", "", nil)
	assert.ErrorIs(t, err, ErrDocumentIDRequired)

	_, err = c.UpdateFile(context.Background(), "", textFile("x"), "", nil)
	assert.ErrorIs(t, err, ErrDocumentIDRequired)

	_, err = c.UpdateMetadata(context.Background(), "", nil, "")
	assert.ErrorIs(t, err, ErrDocumentIDRequired)
}

func TestClient_BaseURLTrailingSlash(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL + "/")

	_, err := c.UpdateMetadata(context.Background(), "doc-1", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/documents/doc-1/update_metadata", rec.last(t).Path)
}

func TestUpdateText_Body(t *testing.T) {
	tests := []struct {
		name     string
		opts     *UpdateOptions
		wantBody map[string]any
	}{
		{
			name:     "no options",
			opts:     nil,
			wantBody: map[string]any{"text": "hello"},
		},
		{
			name:     "empty options",
			opts:     &UpdateOptions{},
			wantBody: map[string]any{"text": "hello"},
		},
		{
			name: "metadata is double encoded",
			opts: &UpdateOptions{Metadata: map[string]any{"a": 1}},
			wantBody: map[string]any{
				"text":     "hello",
				"metadata": `{"a":1}`,
			},
		},
		{
			name: "empty metadata is still sent",
			opts: &UpdateOptions{Metadata: map[string]any{}},
			wantBody: map[string]any{
				"text":     "hello",
				"metadata": `{}`,
			},
		},
		{
			name: "all fields",
			opts: &UpdateOptions{
				Filename:       "notes.md",
				Metadata:       map[string]any{"b": "x<y", "a": true},
				Rules:          []any{map[string]any{"type": "metadata_extraction"}},
				UpdateStrategy: "add",
			},
			wantBody: map[string]any{
				"text":            "hello",
				"filename":        "notes.md",
				"metadata":        `{"a":true,"b":"x<y"}`,
				"rules":           `[{"type":"metadata_extraction"}]`,
				"update_strategy": "add",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, documentJSON)
			c := New(srv.URL)

			_, err := c.UpdateText(context.Background(), "doc-1", "hello", "", tt.opts)
			require.NoError(t, err)

			req := rec.last(t)
			var got map[string]any
			require.NoError(t, json.Unmarshal(req.Body, &got))
			assert.Equal(t, tt.wantBody, got)
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		})
	}
}

func TestUpdateText_OmittedFilenameHasNoKey(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL)

	_, err := c.UpdateText(context.Background(), "doc-1", "hello", "", &UpdateOptions{UpdateStrategy: "add"})
	require.NoError(t, err)

	body := string(rec.last(t).Body)
	assert.NotContains(t, body, "filename")
	assert.NotContains(t, body, "null")
	assert.Equal(t, `{"text":"hello","update_strategy":"add"}`, body)
}

func TestUpdateText_Authorization(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL)

	_, err := c.UpdateText(context.Background(), "doc-1", "hello", "", nil)
	require.NoError(t, err)
	_, present := rec.last(t).Header["Authorization"]
	assert.False(t, present)

	_, err = c.UpdateText(context.Background(), "doc-1", "hello", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", rec.last(t).Header.Get("Authorization"))
}

func TestUseColpaliQuery(t *testing.T) {
	tests := []struct {
		name      string
		flag      *bool
		wantQuery string
	}{
		{name: "absent", flag: nil, wantQuery: ""},
		{name: "explicit false", flag: Bool(false), wantQuery: "use_colpali=false"},
		{name: "true", flag: Bool(true), wantQuery: "use_colpali=true"},
	}

	for _, tt := range tests {
		t.Run("text "+tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, documentJSON)
			c := New(srv.URL)

			_, err := c.UpdateText(context.Background(), "doc-1", "hello", "", &UpdateOptions{UseColpali: tt.flag})
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, rec.last(t).RawQuery)
		})

		t.Run("file "+tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, documentJSON)
			c := New(srv.URL)

			_, err := c.UpdateFile(context.Background(), "doc-1", textFile("x"), "", &UpdateOptions{UseColpali: tt.flag})
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, rec.last(t).RawQuery)
		})
	}
}

// parseForm decodes a recorded multipart body into its fields and file part.
func parseForm(t *testing.T, req capturedRequest) (map[string]string, *multipart.Part, []byte) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	fields := map[string]string{}
	var filePart *multipart.Part
	var fileContent []byte

	mr := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		if p.FormName() == "file" {
			filePart, fileContent = p, b
			continue
		}
		fields[p.FormName()] = string(b)
	}
	return fields, filePart, fileContent
}

func TestUpdateFile_Multipart(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL)

	_, err := c.UpdateFile(context.Background(), "doc-1", textFile("file body"), "tok", &UpdateOptions{
		Filename:       "ignored.txt",
		Metadata:       map[string]any{"a": 1},
		Rules:          []any{"r1"},
		UpdateStrategy: "replace",
	})
	require.NoError(t, err)

	req := rec.last(t)
	ct := req.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="), ct)
	assert.NotContains(t, ct, "application/json")
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	fields, filePart, content := parseForm(t, req)
	require.NotNil(t, filePart)
	assert.Equal(t, "notes.txt", filePart.FileName())
	assert.Equal(t, "text/plain", filePart.Header.Get("Content-Type"))
	assert.Equal(t, "file body", string(content))
	assert.Equal(t, map[string]string{
		"metadata":        `{"a":1}`,
		"rules":           `["r1"]`,
		"update_strategy": "replace",
	}, fields)
}

func TestUpdateFile_OnlyFilePart(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL)

	_, err := c.UpdateFile(context.Background(), "doc-1", File{Content: strings.NewReader("raw")}, "", nil)
	require.NoError(t, err)

	fields, filePart, content := parseForm(t, rec.last(t))
	require.NotNil(t, filePart)
	assert.Empty(t, fields)
	assert.Equal(t, "file", filePart.FileName())
	assert.Equal(t, defaultFileContentType, filePart.Header.Get("Content-Type"))
	assert.Equal(t, "raw", string(content))
}

func TestUpdateFile_NilContent(t *testing.T) {
	c := New("http://127.0.0.1:1")

	_, err := c.UpdateFile(context.Background(), "doc-1", File{Name: "a.txt"}, "", nil)
	assert.ErrorIs(t, err, ErrFileRequired)
}

func TestUpdateMetadata_Body(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     string
	}{
		{name: "empty", metadata: map[string]any{}, want: `{"metadata":{}}`},
		{name: "nil", metadata: nil, want: `{"metadata":{}}`},
		{name: "nested object", metadata: map[string]any{"a": 1, "tags": []any{"x"}}, want: `{"metadata":{"a":1,"tags":["x"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newServer(t, http.StatusOK, documentJSON)
			c := New(srv.URL)

			_, err := c.UpdateMetadata(context.Background(), "doc-1", tt.metadata, "")
			require.NoError(t, err)

			req := rec.last(t)
			assert.Equal(t, tt.want, string(req.Body))
			assert.Empty(t, req.RawQuery)
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		})
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewClientMetrics(reg)
	require.NoError(t, err)

	okSrv, _ := newServer(t, http.StatusOK, documentJSON)
	failSrv, _ := newServer(t, http.StatusBadRequest, "bad")

	_, err = New(okSrv.URL, WithMetrics(m)).UpdateText(context.Background(), "doc-1", "hi", "", nil)
	require.NoError(t, err)
	_, err = New(failSrv.URL, WithMetrics(m)).UpdateMetadata(context.Background(), "doc-1", nil, "")
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "docclient_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClient_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, JSONFormat: true, Level: hclog.Debug})

	srv, _ := newServer(t, http.StatusInternalServerError, "boom")
	c := New(srv.URL, WithLogger(logger))

	_, err := c.UpdateText(context.Background(), "doc-9", "hello", "", nil)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "document update rejected")
	assert.Contains(t, out, "doc-9")
	assert.Contains(t, out, "boom")
}

func TestClient_ConcurrentCalls(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, documentJSON)
	c := New(srv.URL)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.UpdateText(context.Background(), fmt.Sprintf("doc-%d", i), "hello", "", nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	paths := map[string]bool{}
	for _, r := range rec.all() {
		paths[r.Path] = true
	}
	assert.Len(t, paths, n)
}
