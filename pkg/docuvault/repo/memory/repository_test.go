package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

func testDocument(ownerID uuid.UUID, name string) *docuvault.Document {
	now := time.Now().UTC()
	return &docuvault.Document{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           name,
		DocumentType:   "report",
		BlobKey:        "documents/ab/" + name,
		StorageBackend: "memory",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestDocumentOperations(t *testing.T) {
	repo := New()
	ctx := context.Background()
	owner := uuid.New()

	t.Run("create and get", func(t *testing.T) {
		doc := testDocument(owner, "a.pdf")
		require.NoError(t, repo.CreateDocument(ctx, doc))

		got, err := repo.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.Name, got.Name)
		assert.Equal(t, doc.OwnerID, got.OwnerID)

		// The stored copy is isolated from later mutations.
		doc.Name = "changed"
		got, err = repo.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.pdf", got.Name)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetDocument(ctx, uuid.New())
		assert.ErrorIs(t, err, docuvault.ErrDocumentNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		doc := testDocument(owner, "b.pdf")
		require.NoError(t, repo.CreateDocument(ctx, doc))
		require.NoError(t, repo.DeleteDocument(ctx, doc.ID))

		_, err := repo.GetDocument(ctx, doc.ID)
		assert.ErrorIs(t, err, docuvault.ErrDocumentNotFound)

		assert.ErrorIs(t, repo.DeleteDocument(ctx, doc.ID), docuvault.ErrDocumentNotFound)
	})

	t.Run("list by owner", func(t *testing.T) {
		repo := New()
		other := uuid.New()
		require.NoError(t, repo.CreateDocument(ctx, testDocument(owner, "one.pdf")))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(owner, "two.pdf")))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(other, "theirs.pdf")))

		docs, err := repo.ListDocumentsByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		docs, err = repo.ListDocumentsByOwner(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestQuotaOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing quota", func(t *testing.T) {
		repo := New()
		_, err := repo.GetQuota(ctx, uuid.New())
		assert.ErrorIs(t, err, docuvault.ErrQuotaNotFound)
	})

	t.Run("decrement to zero then exceeded", func(t *testing.T) {
		repo := New()
		user := uuid.New()
		repo.ProvisionQuota(user, 2)

		require.NoError(t, repo.DecrementQuota(ctx, user))
		require.NoError(t, repo.DecrementQuota(ctx, user))
		assert.ErrorIs(t, repo.DecrementQuota(ctx, user), docuvault.ErrQuotaExceeded)

		quota, err := repo.GetQuota(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 0, quota.Remaining)
	})

	t.Run("increment is capped", func(t *testing.T) {
		repo := New()
		user := uuid.New()
		repo.ProvisionQuota(user, docuvault.DefaultMaxUploads)

		require.NoError(t, repo.IncrementQuota(ctx, user, docuvault.DefaultMaxUploads))

		quota, err := repo.GetQuota(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, docuvault.DefaultMaxUploads, quota.Remaining)
	})

	t.Run("mutating an unknown user fails", func(t *testing.T) {
		repo := New()
		assert.ErrorIs(t, repo.DecrementQuota(ctx, uuid.New()), docuvault.ErrQuotaNotFound)
		assert.ErrorIs(t, repo.IncrementQuota(ctx, uuid.New(), 6), docuvault.ErrQuotaNotFound)
	})
}

func TestInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit applies all mutations", func(t *testing.T) {
		repo := New()
		user := uuid.New()
		repo.ProvisionQuota(user, 3)
		doc := testDocument(user, "tx.pdf")

		err := repo.InTx(ctx, func(r docuvault.Repository) error {
			if err := r.CreateDocument(ctx, doc); err != nil {
				return err
			}
			return r.DecrementQuota(ctx, user)
		})
		require.NoError(t, err)

		_, err = repo.GetDocument(ctx, doc.ID)
		assert.NoError(t, err)
		quota, err := repo.GetQuota(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, quota.Remaining)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		repo := New()
		user := uuid.New()
		repo.ProvisionQuota(user, 3)
		doc := testDocument(user, "rollback.pdf")

		err := repo.InTx(ctx, func(r docuvault.Repository) error {
			if err := r.CreateDocument(ctx, doc); err != nil {
				return err
			}
			if err := r.DecrementQuota(ctx, user); err != nil {
				return err
			}
			return errors.New("constraint violation")
		})
		require.Error(t, err)

		_, err = repo.GetDocument(ctx, doc.ID)
		assert.ErrorIs(t, err, docuvault.ErrDocumentNotFound)
		quota, err := repo.GetQuota(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 3, quota.Remaining)
	})

	t.Run("quota exhaustion inside the transaction aborts it", func(t *testing.T) {
		repo := New()
		user := uuid.New()
		repo.ProvisionQuota(user, 0)
		doc := testDocument(user, "blocked.pdf")

		err := repo.InTx(ctx, func(r docuvault.Repository) error {
			if err := r.CreateDocument(ctx, doc); err != nil {
				return err
			}
			return r.DecrementQuota(ctx, user)
		})
		assert.ErrorIs(t, err, docuvault.ErrQuotaExceeded)

		_, err = repo.GetDocument(ctx, doc.ID)
		assert.ErrorIs(t, err, docuvault.ErrDocumentNotFound)
	})
}
