package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements docuvault.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// newWithTx creates a transaction-scoped repository
func newWithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("document already exists")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced account not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("quota constraint violated")
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Document operations

func (r *Repository) CreateDocument(ctx context.Context, doc *docuvault.Document) error {
	query := `
		INSERT INTO documents (
			id, owner_id, name, description, document_type, format,
			blob_key, storage_backend, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		doc.ID, doc.OwnerID, doc.Name, doc.Description, doc.DocumentType,
		doc.Format, doc.BlobKey, doc.StorageBackend, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create document", err)
	}

	return nil
}

func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*docuvault.Document, error) {
	query := `
		SELECT id, owner_id, name, description, document_type, format,
		       blob_key, storage_backend, created_at, updated_at
		FROM documents WHERE id = $1`

	var doc docuvault.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.OwnerID, &doc.Name, &doc.Description, &doc.DocumentType,
		&doc.Format, &doc.BlobKey, &doc.StorageBackend, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docuvault.ErrDocumentNotFound
		}
		return nil, r.handlePostgresError("get document", err)
	}

	return &doc, nil
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return docuvault.ErrDocumentNotFound
	}
	return nil
}

func (r *Repository) ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*docuvault.Document, error) {
	query := `
		SELECT id, owner_id, name, description, document_type, format,
		       blob_key, storage_backend, created_at, updated_at
		FROM documents WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list documents", err)
	}
	defer rows.Close()

	docs := make([]*docuvault.Document, 0)
	for rows.Next() {
		var doc docuvault.Document
		if err := rows.Scan(
			&doc.ID, &doc.OwnerID, &doc.Name, &doc.Description, &doc.DocumentType,
			&doc.Format, &doc.BlobKey, &doc.StorageBackend, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, r.handlePostgresError("list documents", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list documents", err)
	}

	return docs, nil
}

// Quota operations

func (r *Repository) GetQuota(ctx context.Context, userID uuid.UUID) (*docuvault.QuotaCounter, error) {
	query := `SELECT user_id, remaining, updated_at FROM user_quotas WHERE user_id = $1`

	var quota docuvault.QuotaCounter
	err := r.db.QueryRow(ctx, query, userID).Scan(&quota.UserID, &quota.Remaining, &quota.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docuvault.ErrQuotaNotFound
		}
		return nil, r.handlePostgresError("get quota", err)
	}

	return &quota, nil
}

// DecrementQuota is a single conditional update: the row lock it takes
// serializes concurrent uploads for the same user, and the remaining > 0
// predicate makes the quota check and the debit one atomic step.
func (r *Repository) DecrementQuota(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE user_quotas
		SET remaining = remaining - 1, updated_at = NOW()
		WHERE user_id = $1 AND remaining > 0`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return r.handlePostgresError("decrement quota", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is missing or the counter is exhausted.
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM user_quotas WHERE user_id = $1)`, userID).Scan(&exists)
		if err != nil {
			return r.handlePostgresError("decrement quota", err)
		}
		if !exists {
			return docuvault.ErrQuotaNotFound
		}
		return docuvault.ErrQuotaExceeded
	}
	return nil
}

// IncrementQuota credits one upload back, never raising the counter above max.
// Redundant credits against a full counter are a no-op, not an error.
func (r *Repository) IncrementQuota(ctx context.Context, userID uuid.UUID, max int) error {
	query := `
		UPDATE user_quotas
		SET remaining = LEAST(remaining + 1, $2), updated_at = NOW()
		WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, max)
	if err != nil {
		return r.handlePostgresError("increment quota", err)
	}
	if tag.RowsAffected() == 0 {
		return docuvault.ErrQuotaNotFound
	}
	return nil
}

// InTx runs fn inside a database transaction. Nested calls reuse the ambient
// transaction.
func (r *Repository) InTx(ctx context.Context, fn func(docuvault.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newWithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
