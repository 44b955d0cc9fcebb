package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/models"
)

func TestMemorySessionStoreLifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := store.Subscribe(ctx)
	require.NoError(t, err)

	session := models.Session{ID: "s-1", Scope: models.SessionScopeSite, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, session))
	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionScopeSite, got.Scope)
	assert.Equal(t, models.SessionEvent{Kind: models.SessionEventCreated, SessionID: "s-1"}, <-events)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, models.SessionEvent{Kind: models.SessionEventRevoked, SessionID: "s-1"}, <-events)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(context.Background(), models.Session{ID: "s-2", ExpiresAt: now.Add(time.Minute)}))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Get(context.Background(), "s-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreUnsubscribesOnCancel(t *testing.T) {
	store := NewMemorySessionStore()
	ctx, cancel := context.WithCancel(context.Background())
	events, err := store.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestMemorySessionStoreSweepsExpiredOnSave(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	for _, id := range []string{"old-1", "old-2"} {
		require.NoError(t, store.Save(ctx, models.Session{ID: id, ExpiresAt: now.Add(time.Minute)}))
	}

	store.now = func() time.Time { return now.Add(time.Hour) }
	require.NoError(t, store.Save(ctx, models.Session{ID: "fresh", ExpiresAt: now.Add(2 * time.Hour)}))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.sessions, 1)
	assert.Contains(t, store.sessions, "fresh")
}
