package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

// Repository implements docuvault.Repository using in-memory storage
type Repository struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]*docuvault.Document
	quotas    map[uuid.UUID]*docuvault.QuotaCounter
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		documents: make(map[uuid.UUID]*docuvault.Document),
		quotas:    make(map[uuid.UUID]*docuvault.QuotaCounter),
	}
}

// ProvisionQuota creates or resets a user's quota counter. In production the
// identity collaborator provisions rows at registration time; here it doubles
// as the test seeding hook.
func (r *Repository) ProvisionQuota(userID uuid.UUID, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotas[userID] = &docuvault.QuotaCounter{
		UserID:    userID,
		Remaining: remaining,
		UpdatedAt: time.Now().UTC(),
	}
}

// Document operations

func (r *Repository) CreateDocument(ctx context.Context, doc *docuvault.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return createDocument(r.documents, doc)
}

func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*docuvault.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getDocument(r.documents, id)
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return deleteDocument(r.documents, id)
}

func (r *Repository) ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*docuvault.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return listDocumentsByOwner(r.documents, ownerID)
}

// Quota operations

func (r *Repository) GetQuota(ctx context.Context, userID uuid.UUID) (*docuvault.QuotaCounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return getQuota(r.quotas, userID)
}

func (r *Repository) DecrementQuota(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return decrementQuota(r.quotas, userID)
}

func (r *Repository) IncrementQuota(ctx context.Context, userID uuid.UUID, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return incrementQuota(r.quotas, userID, max)
}

// InTx stages mutations on copies of both maps and swaps them in only when fn
// succeeds, so a failing callback leaves no trace, matching the transactional
// repository's semantics.
func (r *Repository) InTx(ctx context.Context, fn func(docuvault.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &txRepository{
		documents: cloneDocuments(r.documents),
		quotas:    cloneQuotas(r.quotas),
	}
	if err := fn(tx); err != nil {
		return err
	}

	r.documents = tx.documents
	r.quotas = tx.quotas
	return nil
}

// txRepository operates on staged maps while the outer repository holds its
// write lock. It must not touch the outer mutex.
type txRepository struct {
	documents map[uuid.UUID]*docuvault.Document
	quotas    map[uuid.UUID]*docuvault.QuotaCounter
}

func (t *txRepository) CreateDocument(ctx context.Context, doc *docuvault.Document) error {
	return createDocument(t.documents, doc)
}

func (t *txRepository) GetDocument(ctx context.Context, id uuid.UUID) (*docuvault.Document, error) {
	return getDocument(t.documents, id)
}

func (t *txRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return deleteDocument(t.documents, id)
}

func (t *txRepository) ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*docuvault.Document, error) {
	return listDocumentsByOwner(t.documents, ownerID)
}

func (t *txRepository) GetQuota(ctx context.Context, userID uuid.UUID) (*docuvault.QuotaCounter, error) {
	return getQuota(t.quotas, userID)
}

func (t *txRepository) DecrementQuota(ctx context.Context, userID uuid.UUID) error {
	return decrementQuota(t.quotas, userID)
}

func (t *txRepository) IncrementQuota(ctx context.Context, userID uuid.UUID, max int) error {
	return incrementQuota(t.quotas, userID, max)
}

func (t *txRepository) InTx(ctx context.Context, fn func(docuvault.Repository) error) error {
	// Already inside a transaction; run against the same staged state.
	return fn(t)
}

// Shared map operations

func createDocument(documents map[uuid.UUID]*docuvault.Document, doc *docuvault.Document) error {
	// Copy to avoid external modifications
	docCopy := *doc
	documents[doc.ID] = &docCopy
	return nil
}

func getDocument(documents map[uuid.UUID]*docuvault.Document, id uuid.UUID) (*docuvault.Document, error) {
	doc, exists := documents[id]
	if !exists {
		return nil, docuvault.ErrDocumentNotFound
	}
	docCopy := *doc
	return &docCopy, nil
}

func deleteDocument(documents map[uuid.UUID]*docuvault.Document, id uuid.UUID) error {
	if _, exists := documents[id]; !exists {
		return docuvault.ErrDocumentNotFound
	}
	delete(documents, id)
	return nil
}

func listDocumentsByOwner(documents map[uuid.UUID]*docuvault.Document, ownerID uuid.UUID) ([]*docuvault.Document, error) {
	result := make([]*docuvault.Document, 0)
	for _, doc := range documents {
		if doc.OwnerID == ownerID {
			docCopy := *doc
			result = append(result, &docCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func getQuota(quotas map[uuid.UUID]*docuvault.QuotaCounter, userID uuid.UUID) (*docuvault.QuotaCounter, error) {
	quota, exists := quotas[userID]
	if !exists {
		return nil, docuvault.ErrQuotaNotFound
	}
	quotaCopy := *quota
	return &quotaCopy, nil
}

func decrementQuota(quotas map[uuid.UUID]*docuvault.QuotaCounter, userID uuid.UUID) error {
	quota, exists := quotas[userID]
	if !exists {
		return docuvault.ErrQuotaNotFound
	}
	if quota.Remaining <= 0 {
		return docuvault.ErrQuotaExceeded
	}
	quota.Remaining--
	quota.UpdatedAt = time.Now().UTC()
	return nil
}

func incrementQuota(quotas map[uuid.UUID]*docuvault.QuotaCounter, userID uuid.UUID, max int) error {
	quota, exists := quotas[userID]
	if !exists {
		return docuvault.ErrQuotaNotFound
	}
	if quota.Remaining < max {
		quota.Remaining++
	}
	quota.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneDocuments(in map[uuid.UUID]*docuvault.Document) map[uuid.UUID]*docuvault.Document {
	out := make(map[uuid.UUID]*docuvault.Document, len(in))
	for id, doc := range in {
		docCopy := *doc
		out[id] = &docCopy
	}
	return out
}

func cloneQuotas(in map[uuid.UUID]*docuvault.QuotaCounter) map[uuid.UUID]*docuvault.QuotaCounter {
	out := make(map[uuid.UUID]*docuvault.QuotaCounter, len(in))
	for id, q := range in {
		qCopy := *q
		out[id] = &qCopy
	}
	return out
}
