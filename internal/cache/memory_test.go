package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.Delete(ctx, "a", "missing"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_PerEntryTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("x"), time.Second))

	now = now.Add(2 * time.Second)
	_, ok, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_FlushTag(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)

	require.NoError(t, s.SetTagged(ctx, "p1", []byte("1"), time.Minute, []string{"products"}))
	require.NoError(t, s.SetTagged(ctx, "p2", []byte("2"), time.Minute, []string{"products", "other"}))
	require.NoError(t, s.SetTagged(ctx, "o1", []byte("3"), time.Minute, []string{"other"}))

	require.NoError(t, s.FlushTag(ctx, "products"))

	_, ok, _ := s.Get(ctx, "p1")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "p2")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "o1")
	assert.True(t, ok)

	// 消えたキーはotherタグからも外れている
	s.mu.Lock()
	_, stillTagged := s.tagKeys["other"]["p2"]
	s.mu.Unlock()
	assert.False(t, stillTagged)
}

func TestMemoryStore_RetagOnOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)

	require.NoError(t, s.SetTagged(ctx, "k", []byte("1"), time.Minute, []string{"a"}))
	require.NoError(t, s.SetTagged(ctx, "k", []byte("2"), time.Minute, []string{"b"}))

	require.NoError(t, s.FlushTag(ctx, "a"))
	v, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, s.FlushTag(ctx, "b"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_EvictionUntags(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Hour)

	require.NoError(t, s.SetTagged(ctx, "a", []byte("1"), time.Minute, []string{"t"}))
	require.NoError(t, s.SetTagged(ctx, "b", []byte("2"), time.Minute, []string{"t"}))
	require.NoError(t, s.SetTagged(ctx, "c", []byte("3"), time.Minute, []string{"t"}))

	assert.Equal(t, 2, s.Len())
	s.mu.Lock()
	_, tagged := s.tagKeys["t"]["a"]
	s.mu.Unlock()
	assert.False(t, tagged)
}
