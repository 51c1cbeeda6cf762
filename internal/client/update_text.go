package client

import (
	"bytes"
	"context"
	"fmt"

	"docclient/internal/auth"
	"docclient/internal/model"
)

type textUpdateBody struct {
	Text           string `json:"text"`
	Filename       string `json:"filename,omitempty"`
	Metadata       string `json:"metadata,omitempty"`
	Rules          string `json:"rules,omitempty"`
	UpdateStrategy string `json:"update_strategy,omitempty"`
}

// UpdateText replaces or extends a document's content with text.
// Metadata and rules travel as JSON-encoded strings inside the JSON body.
func (c *Client) UpdateText(ctx context.Context, documentID, text, token string, opts *UpdateOptions) (*model.Document, error) {
	if documentID == "" {
		return nil, ErrDocumentIDRequired
	}

	body := textUpdateBody{Text: text}
	if opts != nil {
		body.Filename = opts.Filename
		body.UpdateStrategy = opts.UpdateStrategy
		if opts.Metadata != nil {
			s, err := encodeField("metadata", opts.Metadata)
			if err != nil {
				return nil, err
			}
			body.Metadata = s
		}
		if opts.Rules != nil {
			s, err := encodeField("rules", opts.Rules)
			if err != nil {
				return nil, err
			}
			body.Rules = s
		}
	}

	payload, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := c.newRequest(ctx,
		c.endpoint(documentID, OpUpdateText, opts.useColpali()),
		bytes.NewReader(payload),
		auth.Headers(token, "application/json"),
	)
	if err != nil {
		return nil, err
	}
	return c.do(OpUpdateText, documentID, req)
}
