package client

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentIDRequired = errors.New("document id is required")
	ErrFileRequired       = errors.New("file content is required")
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Operation  string
	DocumentID string
	StatusCode int
	// Status is the full status line text, e.g. "404 Not Found".
	Status string
	// Body is the raw response body.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %s - %s", e.Operation, e.DocumentID, e.Status, e.Body)
}
