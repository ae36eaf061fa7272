package blobkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFlatGenerator(t *testing.T) {
	g := NewFlatGenerator()
	ownerID := uuid.New()
	docID := uuid.New()

	t.Run("includes document id and filename", func(t *testing.T) {
		key := g.GenerateKey(ownerID, docID, "report.pdf")
		assert.Equal(t, docID.String()+"-report.pdf", key)
	})

	t.Run("falls back to document id alone", func(t *testing.T) {
		key := g.GenerateKey(ownerID, docID, "")
		assert.Equal(t, docID.String(), key)
	})
}

func TestShardedGenerator(t *testing.T) {
	g := NewShardedGenerator()
	ownerID := uuid.New()

	t.Run("shards under the documents prefix", func(t *testing.T) {
		docID := uuid.New()
		key := g.GenerateKey(ownerID, docID, "report.pdf")

		assert.True(t, strings.HasPrefix(key, "documents/"))
		parts := strings.Split(key, "/")
		assert.Len(t, parts, 3)
		assert.Len(t, parts[1], 2)
		assert.True(t, strings.HasSuffix(key, "_report.pdf"))
	})

	t.Run("distinct documents get distinct keys", func(t *testing.T) {
		a := g.GenerateKey(ownerID, uuid.New(), "same.pdf")
		b := g.GenerateKey(ownerID, uuid.New(), "same.pdf")
		assert.NotEqual(t, a, b)
	})

	t.Run("sanitizes path separators in filenames", func(t *testing.T) {
		key := g.GenerateKey(ownerID, uuid.New(), "evil/../name.pdf")
		// The filename cannot introduce extra path segments.
		parts := strings.Split(key, "/")
		assert.Len(t, parts, 3)
		assert.Contains(t, parts[2], "evil_.._name.pdf")
	})
}
