package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

// Backend is an in-memory implementation of the docuvault.BlobStore interface
type Backend struct {
	mu           sync.RWMutex
	blobs        map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		blobs:        make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Upload stores the blob in memory
func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[key] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentTypes[key] = contentType
	return nil
}

// Download streams the blob back
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[key]
	if !exists {
		return nil, docuvault.ErrBlobNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob. Deleting an absent key is a success, per the
// BlobStore contract.
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.blobs, key)
	delete(b.contentTypes, key)
	return nil
}

// Exists reports whether a blob is present under the key
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.blobs[key]
	return exists, nil
}

// Len reports how many blobs are stored; used by tests asserting that failed
// operations left the store untouched.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
