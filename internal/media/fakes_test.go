package media

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/service/internal/auth"
	"github.com/mediahub/service/internal/storage"
)

var errBoom = errors.New("boom")

// recordingStore counts calls and optionally fails them before they reach the
// wrapped memory store.
type recordingStore struct {
	*storage.MemoryStorage

	mu                   sync.Mutex
	lists, puts, presign int
	listErr, putErr      error
	presignErr           error
}

func newRecordingStore(t *testing.T) *recordingStore {
	t.Helper()
	mem, err := storage.NewMemoryStorage("media-data", "http://store.internal:9000", []byte("secret"))
	require.NoError(t, err)
	return &recordingStore{MemoryStorage: mem}
}

func (s *recordingStore) List(ctx context.Context, prefix string, limit int) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	s.lists++
	err := s.listErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStorage.List(ctx, prefix, limit)
}

func (s *recordingStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	s.puts++
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStorage.Put(ctx, key, data, contentType)
}

func (s *recordingStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	s.mu.Lock()
	s.presign++
	err := s.presignErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStorage.PresignGet(ctx, key, ttl)
}

func (s *recordingStore) putCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// recordingNotifier records announced ids.
type recordingNotifier struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (n *recordingNotifier) MediaCreated(_ context.Context, id uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
	return n.err
}

func (n *recordingNotifier) calls() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uuid.UUID(nil), n.ids...)
}

var allowAll = auth.AuthorizerFunc(func(context.Context, string) error { return nil })

var denyAll = auth.AuthorizerFunc(func(_ context.Context, resource string) error {
	return errors.Join(auth.ErrUnauthorized, errors.New(resource))
})
