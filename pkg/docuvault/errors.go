package docuvault

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrDocumentNotFound indicates a document was not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrQuotaNotFound indicates no quota counter exists for the user
	ErrQuotaNotFound = errors.New("quota counter not found")

	// ErrQuotaExceeded indicates the user has no remaining uploads
	ErrQuotaExceeded = errors.New("upload quota exceeded")

	// ErrForbidden indicates the requester does not own the document
	ErrForbidden = errors.New("requester does not own document")

	// ErrUploadFailed indicates the blob write failed; no metadata or quota
	// mutation happened
	ErrUploadFailed = errors.New("upload failed")

	// ErrDeletionFailed indicates the blob delete failed; metadata and quota
	// are untouched
	ErrDeletionFailed = errors.New("deletion failed")

	// ErrDownloadFailed indicates the blob read failed
	ErrDownloadFailed = errors.New("download failed")

	// ErrBlobNotFound indicates no blob exists under the requested key
	ErrBlobNotFound = errors.New("blob not found")
)

// ValidationError reports a missing or malformed input field. It is always
// returned before any external call, so no side effects occurred.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DocumentError represents an error related to document operations
type DocumentError struct {
	DocumentID uuid.UUID
	Op         string
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document operation %s failed for document %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports that one of the two stores involved in an
// operation was mutated and the other was not. It carries enough detail for
// operator reconciliation and must never be folded into an ordinary failure:
// retrying blindly is not safe.
type PartialFailureError struct {
	DocumentID uuid.UUID
	BlobKey    string
	Op         string
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure in %s for document %s (blob key %s): %v", e.Op, e.DocumentID, e.BlobKey, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
