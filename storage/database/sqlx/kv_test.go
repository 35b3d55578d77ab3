package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core/session"
)

func TestKVStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewKVStorage(openTestDB(t))

	_, err := storage.Get(ctx, session.Key)
	assert.Equal(t, session.ErrNoRecord, err)

	require.NoError(t, storage.Set(ctx, session.Key, []byte("v1")))
	require.NoError(t, storage.Set(ctx, session.Key, []byte("v2"))) // upsert

	value, err := storage.Get(ctx, session.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)

	require.NoError(t, storage.Delete(ctx, session.Key))
	_, err = storage.Get(ctx, session.Key)
	assert.Equal(t, session.ErrNoRecord, err)
	assert.NoError(t, storage.Delete(ctx, session.Key))
}

func TestKVStorage_survivesRestore(t *testing.T) {
	ctx := context.Background()
	storage := NewKVStorage(openTestDB(t))

	s, err := session.Open(ctx, storage, session.WithDelay(0))
	require.NoError(t, err)
	acct, err := s.Login(ctx, "a@b.com", "secret", "student")
	require.NoError(t, err)

	restored, err := session.Open(ctx, storage)
	require.NoError(t, err)
	got, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, acct, got)
}
