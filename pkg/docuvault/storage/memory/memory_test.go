package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Upload(ctx, "k1", strings.NewReader("hello"), "text/plain"))

		rc, err := b.Download(ctx, "k1")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		exists, err := b.Exists(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("download missing blob", func(t *testing.T) {
		b := New()
		_, err := b.Download(ctx, "missing")
		assert.ErrorIs(t, err, docuvault.ErrBlobNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Upload(ctx, "k1", strings.NewReader("x"), ""))

		assert.NoError(t, b.Delete(ctx, "k1"))
		assert.NoError(t, b.Delete(ctx, "k1"))

		exists, err := b.Exists(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
