package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mediahub/service/internal/storage"
)

// Resolver maps identifiers to storage keys by prefix listing.
type Resolver struct {
	store storage.Storage
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store storage.Storage) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the key of the object stored for id. One key per id is
// expected; if the store holds more, the first in listing order wins.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (string, error) {
	// Two entries are enough to notice a duplicate.
	objects, err := r.store.List(ctx, id.String(), 2)
	if err != nil {
		return "", fmt.Errorf("resolve media %s: %w: %w", id, ErrStore, err)
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("media file of id %s: %w", id, ErrNotFound)
	}
	if len(objects) > 1 {
		slog.WarnContext(ctx, "media id matches several objects, using the first",
			"id", id, "first", objects[0].Key, "second", objects[1].Key)
	}
	return objects[0].Key, nil
}
