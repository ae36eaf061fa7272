package docuvault

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a user-owned document whose bytes live in a blob store
// and whose metadata lives in the relational store.
type Document struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	DocumentType   string    `json:"document_type"`
	Format         string    `json:"format,omitempty"`
	BlobKey        string    `json:"blob_key"`
	StorageBackend string    `json:"storage_backend"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuotaCounter is a user's remaining-upload budget. Rows are provisioned at
// account registration by the identity collaborator; this core only reads and
// mutates them through the lifecycle service.
type QuotaCounter struct {
	UserID    uuid.UUID `json:"user_id"`
	Remaining int       `json:"remaining"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultMaxUploads is the quota ceiling applied when configuration does not
// override it.
const DefaultMaxUploads = 6
