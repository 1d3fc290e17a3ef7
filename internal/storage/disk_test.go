package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := NewKey("avatar", "PNG")
	assert.True(t, strings.HasPrefix(key, "avatar-"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	require.NoError(t, store.Save(ctx, key, strings.NewReader("contents")))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "contents", string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDiskStoreDeleteMissingIsNoop(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "never-written.png"))
}

func TestDiskStoreKeyCannotEscapeRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "../escape.txt", strings.NewReader("x")))

	rc, err := store.Open(ctx, "escape.txt")
	require.NoError(t, err)
	rc.Close()
}

func TestNewKeyUnique(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, NewKey("pub", "jpg"), NewKey("pub", "jpg"))
}
