package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

// ownerIDHeader carries the authenticated account id. Authentication itself
// belongs to the identity collaborator; this layer only trusts its result.
const ownerIDHeader = "X-Owner-Id"

// DocumentHandler handles HTTP requests for the document lifecycle
type DocumentHandler struct {
	service docuvault.Service
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service docuvault.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Routes returns the routes for documents
func (h *DocumentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.UploadDocument)
	r.Get("/", h.ListDocuments)
	r.Delete("/{id}", h.DeleteDocument)
	r.Get("/{id}/download", h.DownloadDocument)
	r.Get("/quota", h.GetQuota)

	return r
}

// UploadDocument accepts a multipart upload with name, type, description and
// a file part.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		slog.Error("failed to parse multipart form", "error", err)
		renderError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(r.Context(), docuvault.UploadDocumentRequest{
		OwnerID:      ownerID,
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		DocumentType: r.FormValue("type"),
		Format:       fileFormat(header.Filename),
		ContentType:  header.Header.Get("Content-Type"),
		Reader:       file,
	})
	if err != nil {
		renderDomainError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"success": true, "data": doc})
}

// ListDocuments returns every document the owner has
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), ownerID)
	if err != nil {
		renderDomainError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"success": true, "data": docs})
}

// DeleteDocument removes a document the owner holds
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	err = h.service.DeleteDocument(r.Context(), docuvault.DeleteDocumentRequest{
		DocumentID: docID,
		OwnerID:    ownerID,
	})
	if err != nil {
		renderDomainError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"success": true})
}

// DownloadDocument streams the document bytes back
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	rc, err := h.service.DownloadDocument(r.Context(), docuvault.DownloadDocumentRequest{
		DocumentID: docID,
		OwnerID:    ownerID,
	})
	if err != nil {
		renderDomainError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("failed to stream document", "document_id", docID, "error", err)
	}
}

// GetQuota reports the owner's remaining upload allowance
func (h *DocumentHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	quota, err := h.service.GetQuota(r.Context(), ownerID)
	if err != nil {
		renderDomainError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"success": true, "data": quota})
}

func (h *DocumentHandler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, err := uuid.Parse(r.Header.Get(ownerIDHeader))
	if err != nil {
		renderError(w, r, http.StatusUnauthorized, "missing or invalid owner id")
		return uuid.Nil, false
	}
	return ownerID, true
}

// fileFormat extracts the extension-style format from a filename
func fileFormat(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return ""
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"success": false, "error": msg})
}

// renderDomainError maps service errors onto HTTP statuses. PartialFailure is
// surfaced distinctly: the caller must not blindly retry.
func renderDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *docuvault.ValidationError
	var partial *docuvault.PartialFailureError

	switch {
	case errors.As(err, &validation):
		renderError(w, r, http.StatusBadRequest, validation.Error())
	case errors.Is(err, docuvault.ErrDocumentNotFound), errors.Is(err, docuvault.ErrQuotaNotFound):
		renderError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, docuvault.ErrForbidden):
		renderError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, docuvault.ErrQuotaExceeded):
		renderError(w, r, http.StatusForbidden, err.Error())
	case errors.As(err, &partial):
		slog.Error("partial failure surfaced to caller",
			"document_id", partial.DocumentID, "blob_key", partial.BlobKey, "op", partial.Op)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{
			"success":         false,
			"error":           "operation left inconsistent state, do not retry blindly",
			"partial_failure": true,
			"document_id":     partial.DocumentID,
		})
	default:
		slog.Error("document operation failed", "error", err)
		renderError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
