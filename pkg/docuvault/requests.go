package docuvault

import (
	"io"

	"github.com/google/uuid"
)

// Request DTOs

// UploadDocumentRequest contains parameters for uploading a new document
type UploadDocumentRequest struct {
	OwnerID      uuid.UUID
	Name         string
	Description  string
	DocumentType string
	Format       string
	ContentType  string
	Reader       io.Reader
}

// DeleteDocumentRequest contains parameters for deleting a document
type DeleteDocumentRequest struct {
	DocumentID uuid.UUID
	OwnerID    uuid.UUID
}

// DownloadDocumentRequest contains parameters for downloading a document's bytes
type DownloadDocumentRequest struct {
	DocumentID uuid.UUID
	OwnerID    uuid.UUID
}
