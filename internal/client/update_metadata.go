package client

import (
	"bytes"
	"context"
	"fmt"

	"docclient/internal/auth"
	"docclient/internal/model"
)

type metadataUpdateBody struct {
	Metadata map[string]any `json:"metadata"`
}

// UpdateMetadata sends the full metadata map for a document. Unlike text and
// file updates the map is embedded as a JSON object, not a string. A nil map
// is sent as {}.
func (c *Client) UpdateMetadata(ctx context.Context, documentID string, metadata map[string]any, token string) (*model.Document, error) {
	if documentID == "" {
		return nil, ErrDocumentIDRequired
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	payload, err := marshalJSON(metadataUpdateBody{Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := c.newRequest(ctx,
		c.endpoint(documentID, OpUpdateMetadata, nil),
		bytes.NewReader(payload),
		auth.Headers(token, "application/json"),
	)
	if err != nil {
		return nil, err
	}
	return c.do(OpUpdateMetadata, documentID, req)
}
