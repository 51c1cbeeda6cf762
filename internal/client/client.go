// Package client issues document update requests against a remote document
// API. Each call is a single request/response exchange: no retries, no local
// timeout, no state shared between calls beyond the HTTP client itself.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docclient/internal/metrics"
	"docclient/internal/model"
)

// Operation names, used in URLs, logs, metrics and errors.
const (
	OpUpdateText     = "update_text"
	OpUpdateFile     = "update_file"
	OpUpdateMetadata = "update_metadata"
)

// Client talks to one document API base URL. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        hclog.Logger
	metrics    *metrics.ClientMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the diagnostic sink failures are logged to.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records every request in m.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API rooted at baseURL.
// The default HTTP client has no timeout of its own; callers bound requests
// through the context they pass in.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "docclient " + r.Method + " " + r.URL.Path
				}),
			),
		},
		log: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// endpoint builds {base}/documents/{id}/{op}, adding use_colpali when set.
func (c *Client) endpoint(documentID, op string, useColpali *bool) string {
	u := fmt.Sprintf("%s/documents/%s/%s", c.baseURL, url.PathEscape(documentID), op)
	if useColpali != nil {
		q := url.Values{}
		q.Set("use_colpali", strconv.FormatBool(*useColpali))
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, endpoint string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do sends req and turns the response into a Document. Transport and decode
// errors are returned exactly as produced.
func (c *Client) do(op, documentID string, req *http.Request) (*model.Document, error) {
	log := c.log.With("operation", op, "document_id", documentID)
	log.Debug("sending document update", "url", req.URL.String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(op, 0, time.Since(start))
		log.Error("document update request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.Observe(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Error("read error response", "status", resp.Status, "error", err)
			return nil, err
		}
		apiErr := &APIError{
			Operation:  op,
			DocumentID: documentID,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
		log.Error("document update rejected", "status", resp.Status, "body", apiErr.Body)
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("read document", "status", resp.Status, "error", err)
		return nil, err
	}
	var doc model.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		log.Error("decode document", "status", resp.Status, "error", err)
		return nil, err
	}
	log.Debug("document updated", "status", resp.Status)
	return &doc, nil
}

// marshalJSON encodes v without HTML escaping and without the trailing
// newline json.Encoder appends.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeField renders a nested value as a JSON string the server decodes a
// second time.
func encodeField(name string, v any) (string, error) {
	b, err := marshalJSON(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return string(b), nil
}
