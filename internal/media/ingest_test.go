package media

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/service/internal/auth"
)

func TestIngestThenResolve(t *testing.T) {
	store := newRecordingStore(t)
	notifier := &recordingNotifier{}
	ctx := context.Background()

	id, err := NewIngester(store, notifier, allowAll).Ingest(ctx, "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.Equal(t, []uuid.UUID{id}, notifier.calls())

	key, err := NewResolver(store).Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id.String()+".png", key)

	objects, err := store.MemoryStorage.List(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "image/png", objects[0].ContentType)
	require.Equal(t, int64(4), objects[0].Size)
}

func TestIngestRejectsBadContentTypeWithoutSideEffects(t *testing.T) {
	for _, ct := range []string{"", "not a mime type"} {
		t.Run(ct, func(t *testing.T) {
			store := newRecordingStore(t)
			notifier := &recordingNotifier{}

			id, err := NewIngester(store, notifier, allowAll).Ingest(context.Background(), ct, []byte("data"))
			require.ErrorIs(t, err, ErrInvalidMedia)
			require.Equal(t, uuid.Nil, id)
			require.Zero(t, store.putCalls())
			require.Empty(t, notifier.calls())
		})
	}
}

func TestIngestUnauthorizedNeverValidates(t *testing.T) {
	store := newRecordingStore(t)
	notifier := &recordingNotifier{}

	// An invalid content type would fail validation; authorization must fail first.
	_, err := NewIngester(store, notifier, denyAll).Ingest(context.Background(), "", []byte("data"))
	require.ErrorIs(t, err, auth.ErrUnauthorized)
	require.NotErrorIs(t, err, ErrInvalidMedia)
	require.Zero(t, store.putCalls())
	require.Empty(t, notifier.calls())
}

func TestIngestStoreFailureSkipsNotification(t *testing.T) {
	store := newRecordingStore(t)
	store.putErr = errBoom
	notifier := &recordingNotifier{}

	id, err := NewIngester(store, notifier, allowAll).Ingest(context.Background(), "image/gif", []byte("gif"))
	require.ErrorIs(t, err, ErrStore)
	require.Equal(t, uuid.Nil, id)
	require.Empty(t, notifier.calls())
}

func TestIngestNotifyFailureLeavesObjectBehind(t *testing.T) {
	store := newRecordingStore(t)
	notifier := &recordingNotifier{err: errBoom}
	ctx := context.Background()

	id, err := NewIngester(store, notifier, allowAll).Ingest(ctx, "application/pdf", []byte("%PDF"))
	require.ErrorIs(t, err, ErrNotify)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, uuid.Nil, id, "identifier is withheld when the event was not delivered")

	announced := notifier.calls()
	require.Len(t, announced, 1)

	key, err := NewResolver(store).Resolve(ctx, announced[0])
	require.NoError(t, err, "the blob was written before the notification failed")
	require.Equal(t, announced[0].String()+".pdf", key)
}

func TestConcurrentIngestsGetDistinctIdentifiers(t *testing.T) {
	store := newRecordingStore(t)
	notifier := &recordingNotifier{}
	ingester := NewIngester(store, notifier, allowAll)
	ctx := context.Background()

	const n = 16
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], errs[i] = ingester.Ingest(ctx, "image/png", []byte("identical content"))
		}()
	}
	wg.Wait()

	seen := make(map[uuid.UUID]struct{}, n)
	for i := range n {
		require.NoError(t, errs[i])
		seen[ids[i]] = struct{}{}
	}
	require.Len(t, seen, n)

	objects, err := store.MemoryStorage.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, objects, n)
}
