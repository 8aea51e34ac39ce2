// Package media stores uploaded content under generated identifiers and hands
// out expiring links to it. There is no metadata index: an identifier is
// resolved by listing the object store under the identifier prefix.
package media

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidMedia is returned for uploads with a missing or unparsable content type.
	ErrInvalidMedia = errors.New("invalid media")
	// ErrNotFound is returned when no stored object exists for an identifier.
	ErrNotFound = errors.New("media not found")
	// ErrStore wraps failures of the object store.
	ErrStore = errors.New("object store failure")
	// ErrNotify wraps failures to deliver the media created event.
	ErrNotify = errors.New("media event delivery failed")
)

// Media is a stored media file. Its access path is computed on request by
// Service.Path and never stored.
type Media struct {
	ID  uuid.UUID `json:"id"`
	Key string    `json:"-"`
}

// Connection is one page of media.
type Connection struct {
	Nodes       []Node `json:"nodes"`
	HasNextPage bool   `json:"hasNextPage"`
	TotalCount  int    `json:"totalCount"`
}

// Node is a Connection entry; Path is only filled when requested.
type Node struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path,omitempty"`
}

// ObjectKey returns the storage key "{id}.{extension}".
func ObjectKey(id uuid.UUID, extension string) string {
	return id.String() + "." + extension
}

// ParseKey recovers the Media a storage key belongs to from the key's stem,
// the part of the base name before its first dot. Extensions may contain dots
// ("vnd.ms-excel"); UUIDs never do.
func ParseKey(key string) (Media, error) {
	base := path.Base(key)
	stem, _, _ := strings.Cut(base, ".")
	if stem == "" || stem == "/" {
		return Media{}, fmt.Errorf("object key %q has no name", key)
	}
	id, err := uuid.Parse(stem)
	if err != nil {
		return Media{}, fmt.Errorf("object key %q: %w", key, err)
	}
	return Media{ID: id, Key: key}, nil
}

// ExtensionFromContentType derives the file extension from a MIME type's
// subtype, e.g. "image/png" gives "png" and "image/svg+xml" gives "svg".
// Any well-formed subtype is accepted.
func ExtensionFromContentType(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", fmt.Errorf("%w: missing content type", ErrInvalidMedia)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: invalid content type", ErrInvalidMedia)
	}
	_, subtype, ok := strings.Cut(mediaType, "/")
	subtype, _, _ = strings.Cut(subtype, "+")
	if !ok || subtype == "" || subtype == "*" {
		return "", fmt.Errorf("%w: invalid content type", ErrInvalidMedia)
	}
	return subtype, nil
}
