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

// Page size bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service is the public media API used by the transport layer.
type Service struct {
	store    storage.Storage
	resolver *Resolver
	issuer   *Issuer
	ingester *Ingester
}

// NewService wires resolver, issuer and ingester over one store.
func NewService(store storage.Storage, notifier event.Notifier, authz auth.Authorizer, opts IssuerOptions) (*Service, error) {
	issuer, err := NewIssuer(store, opts)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		issuer:   issuer,
		ingester: NewIngester(store, notifier, authz),
	}, nil
}

// Upload ingests one file and returns its identifier.
func (s *Service) Upload(ctx context.Context, contentType string, data []byte) (uuid.UUID, error) {
	return s.ingester.Ingest(ctx, contentType, data)
}

// URL returns a fresh absolute fetch URL for the media.
func (s *Service) URL(ctx context.Context, id uuid.UUID) (string, error) {
	key, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return s.issuer.PublicURL(ctx, key)
}

// Get resolves the media for id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Media, error) {
	key, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return Media{}, err
	}
	return Media{ID: id, Key: key}, nil
}

// Path returns the access path of m, computed on every call.
func (s *Service) Path(ctx context.Context, m Media) (string, error) {
	key := m.Key
	if key == "" {
		var err error
		if key, err = s.resolver.Resolve(ctx, m.ID); err != nil {
			return "", err
		}
	}
	return s.issuer.AccessPath(ctx, key)
}

// List returns one page of stored media ordered by key. Objects whose key is
// not "{uuid}.{ext}" are skipped. With withPath each node gets its access path.
func (s *Service) List(ctx context.Context, first, offset int, withPath bool) (*Connection, error) {
	if first <= 0 {
		first = DefaultPageSize
	}
	first = min(first, MaxPageSize)
	offset = max(offset, 0)

	objects, err := s.store.List(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list media: %w: %w", ErrStore, err)
	}

	all := make([]Media, 0, len(objects))
	for _, obj := range objects {
		m, err := ParseKey(obj.Key)
		if err != nil {
			slog.DebugContext(ctx, "skipping foreign object", "key", obj.Key, "err", err)
			continue
		}
		all = append(all, m)
	}

	conn := &Connection{Nodes: []Node{}, TotalCount: len(all)}
	if offset >= len(all) {
		return conn, nil
	}
	end := min(offset+first, len(all))
	conn.HasNextPage = end < len(all)

	for _, m := range all[offset:end] {
		node := Node{ID: m.ID}
		if withPath {
			if node.Path, err = s.issuer.AccessPath(ctx, m.Key); err != nil {
				return nil, err
			}
		}
		conn.Nodes = append(conn.Nodes, node)
	}
	return conn, nil
}
