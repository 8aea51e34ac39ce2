// Package storage defines the interface for object storage operations.
// The MinIO implementation works with any S3-compatible provider; the memory
// implementation serves local development and tests.
package storage

import (
	"context"
	"net/url"
	"time"
)

// ObjectInfo describes one stored object as returned by a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the object store the media service reads and writes.
// Implementations ensure their bucket exists when constructed.
type Storage interface {
	// List returns objects whose key begins with prefix, ordered by key.
	// A positive limit stops the listing after that many entries.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// PresignGet returns a URL granting anonymous GET access to key for ttl.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error)
}
