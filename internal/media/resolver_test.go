package media

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestResolveSingleMatch(t *testing.T) {
	store := newRecordingStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Put(ctx, ObjectKey(id, "webp"), []byte("img"), "image/webp"))
	require.NoError(t, store.Put(ctx, ObjectKey(uuid.New(), "png"), []byte("other"), "image/png"))

	key, err := NewResolver(store).Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id.String()+".webp", key)
}

func TestResolveNotFoundEchoesID(t *testing.T) {
	store := newRecordingStore(t)
	id := uuid.New()

	_, err := NewResolver(store).Resolve(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, id.String())
}

func TestResolveAmbiguousPicksFirstListed(t *testing.T) {
	store := newRecordingStore(t)
	ctx := context.Background()
	id := uuid.New()

	for _, ext := range []string{"png", "gif", "jpeg"} {
		require.NoError(t, store.Put(ctx, ObjectKey(id, ext), []byte(ext), "image/"+ext))
	}

	r := NewResolver(store)
	for range 3 {
		key, err := r.Resolve(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id.String()+".gif", key, "listing is ordered by key")
	}
}

func TestResolveStoreFailure(t *testing.T) {
	store := newRecordingStore(t)
	store.listErr = errBoom

	_, err := NewResolver(store).Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrStore)
	require.ErrorIs(t, err, errBoom)
	require.NotErrorIs(t, err, ErrNotFound)
}
