package docuvault

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/docuvault/pkg/docuvault/blobkey"
)

// service implements the Service interface
type service struct {
	repository   Repository
	blobStores   map[string]BlobStore
	defaultStore string
	keyGen       blobkey.Generator
	maxUploads   int
	logger       *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first backend added becomes
// the default unless WithDefaultBlobStore overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultStore == "" {
			s.defaultStore = name
		}
	}
}

// WithDefaultBlobStore selects the backend new uploads go to
func WithDefaultBlobStore(name string) Option {
	return func(s *service) {
		s.defaultStore = name
	}
}

// WithKeyGenerator sets the blob key generation strategy
func WithKeyGenerator(gen blobkey.Generator) Option {
	return func(s *service) {
		s.keyGen = gen
	}
}

// WithMaxUploads sets the quota ceiling applied when crediting deletes
func WithMaxUploads(max int) Option {
	return func(s *service) {
		s.maxUploads = max
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		maxUploads: DefaultMaxUploads,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if len(s.blobStores) == 0 {
		return nil, fmt.Errorf("at least one blob store is required")
	}
	if s.keyGen == nil {
		s.keyGen = blobkey.NewShardedGenerator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) UploadDocument(ctx context.Context, req UploadDocumentRequest) (*Document, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	// Empty content is rejected before it can consume quota or leave a
	// zero-byte blob behind.
	content := bufio.NewReader(req.Reader)
	if _, err := content.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Field: "file", Reason: "must not be empty"}
		}
		return nil, fmt.Errorf("read document content: %w", err)
	}

	// Quota pre-check. The authoritative check is the conditional decrement
	// inside the transaction; this one keeps a quota-exhausted upload from
	// ever touching the blob store.
	quota, err := s.repository.GetQuota(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if quota.Remaining <= 0 {
		return nil, ErrQuotaExceeded
	}

	docID := uuid.New()
	key := s.keyGen.GenerateKey(req.OwnerID, docID, req.Name)
	store := s.blobStores[s.defaultStore]

	// Blob I/O happens before the transaction opens: the blob store has no
	// transactional join with the relational store.
	if err := store.Upload(ctx, key, content, req.ContentType); err != nil {
		s.logger.Error("blob upload failed",
			"document_id", docID, "blob_key", key, "backend", s.defaultStore, "error", err)
		return nil, &StorageError{
			Backend: s.defaultStore,
			Key:     key,
			Op:      "upload",
			Err:     fmt.Errorf("%w: %v", ErrUploadFailed, err),
		}
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:             docID,
		OwnerID:        req.OwnerID,
		Name:           req.Name,
		Description:    req.Description,
		DocumentType:   req.DocumentType,
		Format:         req.Format,
		BlobKey:        key,
		StorageBackend: s.defaultStore,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txErr := s.repository.InTx(ctx, func(r Repository) error {
		if err := r.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return r.DecrementQuota(ctx, req.OwnerID)
	})
	if txErr != nil {
		// Saga compensation: the blob is already written, so remove it on a
		// best-effort basis. Compensation errors are logged, never returned;
		// the caller sees the transaction failure.
		if delErr := store.Delete(ctx, key); delErr != nil {
			s.logger.Error("compensating blob delete failed, orphaned blob needs manual cleanup",
				"document_id", docID, "blob_key", key, "backend", s.defaultStore, "error", delErr)
		}
		return nil, &DocumentError{DocumentID: docID, Op: "upload", Err: txErr}
	}

	s.logger.Info("document uploaded",
		"document_id", docID, "owner_id", req.OwnerID, "blob_key", key)
	return doc, nil
}

func (s *service) DeleteDocument(ctx context.Context, req DeleteDocumentRequest) error {
	if req.DocumentID == uuid.Nil {
		return &ValidationError{Field: "document_id", Reason: "must not be empty"}
	}
	if req.OwnerID == uuid.Nil {
		return &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}

	doc, err := s.repository.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return err
	}

	// Ownership check precedes every mutation.
	if doc.OwnerID != req.OwnerID {
		return ErrForbidden
	}

	store, err := s.storeFor(doc)
	if err != nil {
		return err
	}

	// Idempotent blob delete: the BlobStore contract treats an absent key as
	// success, so only genuine backend failures land here.
	if err := store.Delete(ctx, doc.BlobKey); err != nil {
		s.logger.Error("blob delete failed",
			"document_id", doc.ID, "blob_key", doc.BlobKey, "error", err)
		return &StorageError{
			Backend: doc.StorageBackend,
			Key:     doc.BlobKey,
			Op:      "delete",
			Err:     fmt.Errorf("%w: %v", ErrDeletionFailed, err),
		}
	}

	txErr := s.repository.InTx(ctx, func(r Repository) error {
		if err := r.DeleteDocument(ctx, doc.ID); err != nil {
			return err
		}
		return r.IncrementQuota(ctx, doc.OwnerID, s.maxUploads)
	})
	if txErr != nil {
		// The blob is gone but metadata and quota were not updated. Surface
		// the inconsistency for reconciliation instead of swallowing it.
		pf := &PartialFailureError{
			DocumentID: doc.ID,
			BlobKey:    doc.BlobKey,
			Op:         "delete",
			Err:        txErr,
		}
		s.logger.Error("delete left inconsistent state, reconciliation required",
			"document_id", doc.ID, "blob_key", doc.BlobKey, "owner_id", doc.OwnerID, "error", txErr)
		return pf
	}

	s.logger.Info("document deleted",
		"document_id", doc.ID, "owner_id", doc.OwnerID, "blob_key", doc.BlobKey)
	return nil
}

func (s *service) ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]*Document, error) {
	if ownerID == uuid.Nil {
		return nil, &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}

	docs, err := s.repository.ListDocumentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*Document{}
	}
	return docs, nil
}

func (s *service) DownloadDocument(ctx context.Context, req DownloadDocumentRequest) (io.ReadCloser, error) {
	doc, err := s.repository.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != req.OwnerID {
		return nil, ErrForbidden
	}

	store, err := s.storeFor(doc)
	if err != nil {
		return nil, err
	}

	rc, err := store.Download(ctx, doc.BlobKey)
	if err != nil {
		return nil, &StorageError{
			Backend: doc.StorageBackend,
			Key:     doc.BlobKey,
			Op:      "download",
			Err:     fmt.Errorf("%w: %v", ErrDownloadFailed, err),
		}
	}
	return rc, nil
}

func (s *service) GetQuota(ctx context.Context, userID uuid.UUID) (*QuotaCounter, error) {
	return s.repository.GetQuota(ctx, userID)
}

func (s *service) storeFor(doc *Document) (BlobStore, error) {
	name := doc.StorageBackend
	if name == "" {
		name = s.defaultStore
	}
	store, ok := s.blobStores[name]
	if !ok {
		return nil, fmt.Errorf("storage backend %q not configured", name)
	}
	return store, nil
}

func validateUpload(req UploadDocumentRequest) error {
	if req.OwnerID == uuid.Nil {
		return &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if req.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if req.DocumentType == "" {
		return &ValidationError{Field: "document_type", Reason: "must not be empty"}
	}
	if req.Reader == nil {
		return &ValidationError{Field: "file", Reason: "must not be empty"}
	}
	return nil
}
