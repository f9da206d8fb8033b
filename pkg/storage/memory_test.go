package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadAbsentKey", func(t *testing.T) {
		store := NewMemory()
		_, err := store.Load(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveThenLoad", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Save(ctx, "k", []byte("v1")))
		value, err := store.Load(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), value)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Save(ctx, "k", []byte("v1")))
		require.NoError(t, store.Save(ctx, "k", []byte("v2")))
		value, err := store.Load(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), value)
	})

	t.Run("DeleteRemovesKey", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Save(ctx, "k", []byte("v")))
		require.NoError(t, store.Delete(ctx, "k"))
		_, err := store.Load(ctx, "k")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteAbsentKeySucceeds", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Delete(ctx, "never-set"))
	})

	t.Run("ValuesDoNotAliasCallerBuffers", func(t *testing.T) {
		store := NewMemory()
		buf := []byte("original")
		require.NoError(t, store.Save(ctx, "k", buf))
		buf[0] = 'X'

		value, err := store.Load(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("original"), value)

		value[0] = 'Y'
		again, err := store.Load(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("original"), again)
	})

	t.Run("CancelledContextIsRejected", func(t *testing.T) {
		store := NewMemory()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Load(cancelled, "k")
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, store.Save(cancelled, "k", nil), context.Canceled)
	})
}
