package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/docuvault/docuvault/pkg/docuvault/conversion"
)

// correlationIDHeader lets callers supply their own correlation id; one is
// generated when absent.
const correlationIDHeader = "X-Correlation-Id"

// ConvertHandler handles HTTP requests for document conversion
type ConvertHandler struct {
	gateway *conversion.Gateway
}

// NewConvertHandler creates a new conversion handler
func NewConvertHandler(gateway *conversion.Gateway) *ConvertHandler {
	return &ConvertHandler{gateway: gateway}
}

// Routes returns the routes for conversion
func (h *ConvertHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ConvertDocument)
	return r
}

// ConvertDocumentRequest is the request body for a conversion
type ConvertDocumentRequest struct {
	DocumentID   string         `json:"document_id"`
	SourceFormat string         `json:"source_format,omitempty"`
	TargetFormat string         `json:"target_format"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ConvertDocument forwards a conversion request through the gateway and maps
// the outcome onto an HTTP response. The correlation id is echoed in every
// response so callers can trace the attempt.
func (h *ConvertHandler) ConvertDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req ConvertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	docID, _ := uuid.Parse(req.DocumentID)

	outcome := h.gateway.Convert(r.Context(), conversion.Request{
		DocumentID:    docID,
		OwnerID:       ownerID,
		SourceFormat:  req.SourceFormat,
		TargetFormat:  req.TargetFormat,
		Metadata:      req.Metadata,
		CorrelationID: r.Header.Get(correlationIDHeader),
	})

	w.Header().Set(correlationIDHeader, outcome.CorrelationID)

	switch outcome.Status {
	case conversion.StatusSuccess:
		render.JSON(w, r, map[string]any{
			"success":        true,
			"data":           outcome.Payload,
			"correlation_id": outcome.CorrelationID,
		})
	case conversion.StatusRejected:
		render.Status(r, outcome.StatusCode)
		render.JSON(w, r, map[string]any{
			"success":        false,
			"error":          "conversion request rejected",
			"details":        outcome.Details,
			"correlation_id": outcome.CorrelationID,
		})
	case conversion.StatusUnavailable:
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]any{
			"success":        false,
			"error":          "conversion service temporarily unavailable: " + outcome.Reason,
			"correlation_id": outcome.CorrelationID,
		})
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{
			"success":        false,
			"error":          outcome.Message,
			"correlation_id": outcome.CorrelationID,
		})
	}
}

func (h *ConvertHandler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, err := uuid.Parse(r.Header.Get(ownerIDHeader))
	if err != nil {
		renderError(w, r, http.StatusUnauthorized, "missing or invalid owner id")
		return uuid.Nil, false
	}
	return ownerID, true
}
