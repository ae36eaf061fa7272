package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

func TestFilesystemBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a base directory", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})

	t.Run("round trip with nested keys", func(t *testing.T) {
		b, err := New(Config{BaseDir: t.TempDir()})
		require.NoError(t, err)

		key := "documents/ab/cd_report.pdf"
		require.NoError(t, b.Upload(ctx, key, strings.NewReader("content"), "application/pdf"))

		rc, err := b.Download(ctx, key)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("download missing blob", func(t *testing.T) {
		b, err := New(Config{BaseDir: t.TempDir()})
		require.NoError(t, err)

		_, err = b.Download(ctx, "missing")
		assert.ErrorIs(t, err, docuvault.ErrBlobNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		b, err := New(Config{BaseDir: t.TempDir()})
		require.NoError(t, err)

		require.NoError(t, b.Upload(ctx, "k", strings.NewReader("x"), ""))
		assert.NoError(t, b.Delete(ctx, "k"))
		assert.NoError(t, b.Delete(ctx, "k"))

		exists, err := b.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
