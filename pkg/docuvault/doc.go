// Package docuvault provides a document vault with pluggable repository and
// blob storage backends.
//
// It exposes a single Service interface that orchestrates the document
// lifecycle: uploads, deletions, listing and downloads, each charged against a
// per-user quota counter. Blob bytes live in a BlobStore while metadata and
// quota rows live in a Repository; the service keeps the two consistent by
// running all row mutations in one transaction and compensating blob writes
// when that transaction fails. Implementations of repositories (memory,
// Postgres) and blob stores (memory, filesystem, S3) are provided under
// subpackages.
//
// # Consistency
//
// Blob I/O never runs inside a database transaction. An upload writes the blob
// first and deletes it again if the transaction fails; a deletion removes the
// blob first and reports a *PartialFailureError if the follow-up transaction
// fails, so callers know the metadata still references a missing blob.
package docuvault
