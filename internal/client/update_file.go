package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"docclient/internal/auth"
	"docclient/internal/model"
)

const defaultFileContentType = "application/octet-stream"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UpdateFile replaces or extends a document's content with a file, sent as
// multipart/form-data. opts.Filename is ignored.
func (c *Client) UpdateFile(ctx context.Context, documentID string, file File, token string, opts *UpdateOptions) (*model.Document, error) {
	if documentID == "" {
		return nil, ErrDocumentIDRequired
	}
	if file.Content == nil {
		return nil, ErrFileRequired
	}

	body, contentType, err := buildFileForm(file, opts)
	if err != nil {
		return nil, err
	}

	headers := auth.Headers(token, "")
	headers["Content-Type"] = contentType

	req, err := c.newRequest(ctx,
		c.endpoint(documentID, OpUpdateFile, opts.useColpali()),
		body,
		headers,
	)
	if err != nil {
		return nil, err
	}
	return c.do(OpUpdateFile, documentID, req)
}

// buildFileForm writes the multipart body and returns it with its
// boundary-carrying content type.
func buildFileForm(file File, opts *UpdateOptions) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := file.Name
	if name == "" {
		name = "file"
	}
	ct := file.ContentType
	if ct == "" {
		ct = defaultFileContentType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, "", fmt.Errorf("read file %s: %w", name, err)
	}

	if opts != nil {
		if opts.Metadata != nil {
			s, err := encodeField("metadata", opts.Metadata)
			if err != nil {
				return nil, "", err
			}
			if err := w.WriteField("metadata", s); err != nil {
				return nil, "", fmt.Errorf("write metadata field: %w", err)
			}
		}
		if opts.Rules != nil {
			s, err := encodeField("rules", opts.Rules)
			if err != nil {
				return nil, "", err
			}
			if err := w.WriteField("rules", s); err != nil {
				return nil, "", fmt.Errorf("write rules field: %w", err)
			}
		}
		if opts.UpdateStrategy != "" {
			if err := w.WriteField("update_strategy", opts.UpdateStrategy); err != nil {
				return nil, "", fmt.Errorf("write update_strategy field: %w", err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
