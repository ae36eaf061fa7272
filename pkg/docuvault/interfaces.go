package docuvault

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends. Blob calls never
// participate in a database transaction; the service sequences them so that a
// transaction is only opened after blob I/O has finished.
type BlobStore interface {
	// Upload writes the blob under the given key
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download streams the blob back
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting an absent key is a success.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is present under the key
	Exists(ctx context.Context, key string) (bool, error)
}

// Repository defines the interface for document metadata and quota persistence
type Repository interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)

	// Quota operations. DecrementQuota fails with ErrQuotaExceeded when the
	// counter is already zero; IncrementQuota never raises the counter above
	// max. Both are single conditional updates so the row lock serializes
	// concurrent mutations of one user's counter.
	GetQuota(ctx context.Context, userID uuid.UUID) (*QuotaCounter, error)
	DecrementQuota(ctx context.Context, userID uuid.UUID) error
	IncrementQuota(ctx context.Context, userID uuid.UUID, max int) error

	// InTx runs fn against a transaction-scoped repository. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error
}

// DocumentFinder is the read-only lookup the conversion gateway needs. The
// full Repository satisfies it.
type DocumentFinder interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
}
