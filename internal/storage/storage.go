// Package storage reads file payloads from S3-compatible object stores.
// Objects are streamed; nothing is written to local disk.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a read-only, S3-compatible object storage client interface.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
}
