package docuvault

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the document lifecycle manager. It orchestrates the blob store,
// the document metadata table and the per-user quota counter, keeping them
// consistent despite partial failures.
type Service interface {
	// UploadDocument stores the document bytes and, in one transaction,
	// records the metadata row and debits the owner's quota.
	UploadDocument(ctx context.Context, req UploadDocumentRequest) (*Document, error)

	// DeleteDocument removes the blob and, in one transaction, deletes the
	// metadata row and credits the owner's quota (capped).
	DeleteDocument(ctx context.Context, req DeleteDocumentRequest) error

	// ListDocuments returns every document owned by ownerID; an owner with no
	// documents gets an empty slice, not an error.
	ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)

	// DownloadDocument streams the document bytes after an ownership check.
	DownloadDocument(ctx context.Context, req DownloadDocumentRequest) (io.ReadCloser, error)

	// GetQuota reports the owner's remaining upload allowance.
	GetQuota(ctx context.Context, userID uuid.UUID) (*QuotaCounter, error)
}
