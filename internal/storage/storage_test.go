package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/config"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	n, err := b.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, b.Store(ctx, []json.RawMessage{
		json.RawMessage(`{"type":"click","n":1}`),
		json.RawMessage(`{"type":"scroll","n":2}`),
	}))
	require.NoError(t, b.Store(ctx, []json.RawMessage{json.RawMessage(`{"type":"custom","n":3}`)}))

	n, err = b.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := b.Retrieve(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"type":"click","n":1}`, string(got[0]))
	assert.JSONEq(t, `{"type":"custom","n":3}`, string(got[2]))

	require.NoError(t, b.Clear(ctx))
	n, err = b.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := b.Get(ctx, "last_visit")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "last_visit", "1"))
	require.NoError(t, b.Set(ctx, "last_visit", "2"))
	v, ok, err := b.Get(ctx, "last_visit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	b, err := NewSQLite(path)
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	b, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, b.Store(ctx, []json.RawMessage{json.RawMessage(`{"type":"click"}`)}))
	require.NoError(t, b.Close())

	b, err = NewSQLite(path)
	require.NoError(t, err)
	defer b.Close()
	n, err := b.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen(t *testing.T) {
	b, err := Open(config.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(config.StorageConfig{Driver: DriverRedis, Redis: config.RedisConfig{Addr: "localhost:6379"}})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, b)
	require.NoError(t, b.Close())

	_, err = Open(config.StorageConfig{Driver: "bolt"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestMemoryRetrieveIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Store(ctx, []json.RawMessage{json.RawMessage(`{}`)}))
	got, err := m.Retrieve(ctx)
	require.NoError(t, err)
	got[0] = json.RawMessage(`{"x":1}`)
	again, err := m.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(again[0]))
}
