package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mediahub/service/internal/auth"
	"github.com/mediahub/service/internal/event"
	"github.com/mediahub/service/internal/storage"
)

// UploadResource is the resource name uploads are authorized against.
const UploadResource = "media:upload"

// Ingester validates, stores and announces uploads.
type Ingester struct {
	store    storage.Storage
	notifier event.Notifier
	authz    auth.Authorizer
	newID    func() uuid.UUID
}

// NewIngester wires an Ingester.
func NewIngester(store storage.Storage, notifier event.Notifier, authz auth.Authorizer) *Ingester {
	return &Ingester{store: store, notifier: notifier, authz: authz, newID: uuid.New}
}

// Ingest stores data under a fresh identifier and announces it. The identifier
// is returned only when both the write and the announcement succeed. A failed
// announcement leaves the written object behind, unreferenced.
func (g *Ingester) Ingest(ctx context.Context, contentType string, data []byte) (uuid.UUID, error) {
	if err := g.authz.Authorize(ctx, UploadResource); err != nil {
		return uuid.Nil, err
	}

	ext, err := ExtensionFromContentType(contentType)
	if err != nil {
		return uuid.Nil, err
	}

	id := g.newID()
	key := ObjectKey(id, ext)

	if err := g.store.Put(ctx, key, data, contentType); err != nil {
		return uuid.Nil, fmt.Errorf("media file could not be stored: %w: %w", ErrStore, err)
	}

	if err := g.notifier.MediaCreated(ctx, id); err != nil {
		slog.WarnContext(ctx, "media stored but not announced; object is orphaned",
			"id", id, "key", key, "err", err)
		return uuid.Nil, fmt.Errorf("media %s: %w: %w", id, ErrNotify, err)
	}

	slog.DebugContext(ctx, "media ingested", "id", id, "key", key, "bytes", len(data))
	return id, nil
}
