package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBStore_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewDBStore(testutil.NewDB(t))

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Minute))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Minute))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestDBStore_ExpiredIsMissAndDeleted(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := NewDBStore(db)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	now = now.Add(time.Minute)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	var n int64
	require.NoError(t, db.Model(&model.CacheEntry{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestDBStore_DeleteAndPrune(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := NewDBStore(db)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, s.Set(ctx, "c", []byte("3"), time.Hour))

	require.NoError(t, s.Delete(ctx, "c", "missing"))

	now = now.Add(time.Minute)
	n, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, _ := s.Get(ctx, "b")
	assert.True(t, ok)
}

func TestDBStore_IsNotTagCapable(t *testing.T) {
	c := New(NewDBStore(testutil.NewDB(t)), nil)
	assert.False(t, c.SupportsTags())
}
