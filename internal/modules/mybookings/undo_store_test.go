package mybookings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUndoStore_PeekThenClear(t *testing.T) {
	s := NewMemoryUndoStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	put, err := s.Put(ctx, "global", "a", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Second), put.ExpiresAt)

	p, err := s.Peek(ctx, "global")
	require.NoError(t, err)
	assert.Equal(t, "a", p.BookingID)

	// peeking twice leaves the token in place
	_, err = s.Peek(ctx, "global")
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "global", *p))
	_, err = s.Peek(ctx, "global")
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestMemoryUndoStore_ClearKeepsNewerToken(t *testing.T) {
	s := NewMemoryUndoStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	old, err := s.Put(ctx, "v", "a", 5*time.Second)
	require.NoError(t, err)
	_, err = s.Put(ctx, "v", "b", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "v", *old))

	p, err := s.Peek(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "b", p.BookingID)
}

func TestMemoryUndoStore_Expiry(t *testing.T) {
	s := NewMemoryUndoStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Put(ctx, "v", "a", 5*time.Second)
	require.NoError(t, err)
	_, err = s.Put(ctx, "w", "c", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, s.Sweep())

	p, err := s.Peek(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "a", p.BookingID)

	now = now.Add(3 * time.Second)
	_, err = s.Peek(ctx, "v")
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, 0, s.Sweep())
}

func TestRedisUndoStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisUndoStore(rdb)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.Peek(ctx, "viewer-1")
	assert.ErrorIs(t, err, ErrNothingToUndo)

	put, err := s.Put(ctx, "viewer-1", "a", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Second), put.ExpiresAt)

	p, err := s.Peek(ctx, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, "a", p.BookingID)
	assert.True(t, put.ExpiresAt.Equal(p.ExpiresAt))

	_, err = s.Put(ctx, "viewer-1", "b", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, "viewer-1", *p))
	p, err = s.Peek(ctx, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, "b", p.BookingID)

	require.NoError(t, s.Clear(ctx, "viewer-1", *p))
	_, err = s.Peek(ctx, "viewer-1")
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = s.Put(ctx, "viewer-1", "c", 5*time.Second)
	require.NoError(t, err)
	mr.FastForward(6 * time.Second)
	_, err = s.Peek(ctx, "viewer-1")
	assert.ErrorIs(t, err, ErrNothingToUndo)
}
