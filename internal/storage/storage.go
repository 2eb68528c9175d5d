// Package storage contains the object storage gateway used for component
// attachments. Implementations target S3-compatible backends (MinIO, AWS S3)
// and operate on a single bucket fixed at construction time.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound reports that a storage key does not resolve to an object.
// Callers match it with errors.Is to tell a missing attachment apart from an
// infrastructure failure.
var ErrObjectNotFound = errors.New("object not found")

// UploadOptions define optional parameters for uploading objects.
// ContentType and Metadata are optional; empty values are omitted.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the gateway to a single object-storage bucket.
// Methods use context and are safe for concurrent use.
type Storage interface {
	// UploadFile pushes a local file to the bucket under the given key.
	UploadFile(ctx context.Context, key, filePath string, opt UploadOptions) (ObjectInfo, error)
	// GetStream opens an object's content as a streaming reader alongside its
	// info. The object is stat'ed eagerly so a missing key fails here, not on
	// the first read. The caller owns closing the reader.
	GetStream(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// ListFolder returns every object under the given key prefix, recursively.
	// An empty prefix lists the whole bucket.
	ListFolder(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// RemoveFolder deletes every object under the given key prefix. Removing
	// an empty prefix is not an error.
	RemoveFolder(ctx context.Context, prefix string) error
}
