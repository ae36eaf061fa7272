package blobkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for blob key generation strategies. Keys
// must be globally unique so a retried upload never overwrites an earlier blob.
type Generator interface {
	// GenerateKey creates a blob key for a document owned by ownerID
	GenerateKey(ownerID, documentID uuid.UUID, fileName string) string
}

// FlatGenerator produces "<document-id>-<filename>" keys, the layout the
// original storage bucket used.
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(ownerID, documentID uuid.UUID, fileName string) string {
	if fileName != "" {
		return fmt.Sprintf("%s-%s", documentID, sanitizeFilename(fileName))
	}
	return documentID.String()
}

// ShardedGenerator produces sharded keys so buckets with many objects keep
// prefix listings cheap: documents/{shard}/{rest}_{filename}.
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2}
}

func (g *ShardedGenerator) GenerateKey(ownerID, documentID uuid.UUID, fileName string) string {
	idStr := strings.ReplaceAll(documentID.String(), "-", "")

	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen > len(idStr) {
		shardLen = 2
	}
	shard := idStr[:shardLen]
	rest := idStr[shardLen:]

	name := rest
	if fileName != "" {
		name = fmt.Sprintf("%s_%s", rest, sanitizeFilename(fileName))
	}

	return fmt.Sprintf("documents/%s/%s", shard, name)
}

// sanitizeFilename strips path separators and control characters from
// user-supplied filenames before they become part of a key.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "file"
	}
	return out
}
