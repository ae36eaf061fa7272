// Package conversion shields the rest of the system from the external
// conversion microservice. Every call goes through a shared circuit breaker
// and comes back as a tagged Outcome, so callers handle slow, erroring and
// down services the same explicit way.
package conversion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuvault/docuvault/pkg/docuvault"
)

// Gateway is the breaker-protected client to the conversion microservice.
type Gateway struct {
	finder  docuvault.DocumentFinder
	caller  Caller
	breaker *Breaker
	logger  *slog.Logger
}

// NewGateway wires a gateway from its collaborators. A nil breaker gets the
// default configuration; a nil logger falls back to slog.Default.
func NewGateway(finder docuvault.DocumentFinder, caller Caller, breaker *Breaker, logger *slog.Logger) (*Gateway, error) {
	if finder == nil {
		return nil, errors.New("document finder is required")
	}
	if caller == nil {
		return nil, errors.New("caller is required")
	}
	if breaker == nil {
		breaker = NewBreaker(BreakerConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{finder: finder, caller: caller, breaker: breaker, logger: logger}, nil
}

// Convert runs one conversion attempt and always returns an Outcome carrying
// the correlation id. Input and lookup problems never touch the breaker:
// malformed requests are caller bugs, not downstream unreliability.
func (g *Gateway) Convert(ctx context.Context, req Request) Outcome {
	if req.CorrelationID == "" {
		req.CorrelationID = NewCorrelationID()
	}
	cid := req.CorrelationID

	if req.DocumentID == uuid.Nil {
		return failureOutcome(cid, "document_id is required")
	}
	if req.OwnerID == uuid.Nil {
		return failureOutcome(cid, "owner_id is required")
	}
	if req.TargetFormat == "" {
		return failureOutcome(cid, "target_format is required")
	}

	if _, err := g.finder.GetDocument(ctx, req.DocumentID); err != nil {
		if errors.Is(err, docuvault.ErrDocumentNotFound) {
			return failureOutcome(cid, "document not found")
		}
		g.logger.Error("document lookup failed",
			"correlation_id", cid, "document_id", req.DocumentID, "error", err)
		return failureOutcome(cid, "document lookup failed")
	}

	if !g.breaker.Allow() {
		g.logger.Warn("conversion short-circuited",
			"correlation_id", cid, "document_id", req.DocumentID, "breaker_state", g.breaker.State())
		return unavailableOutcome(cid, "circuit open")
	}

	g.logger.Info("starting document conversion",
		"correlation_id", cid, "document_id", req.DocumentID, "target_format", req.TargetFormat)

	payload, err := g.caller.Call(ctx, req)
	if err == nil {
		g.breaker.RecordSuccess()
		g.logger.Info("document conversion completed",
			"correlation_id", cid, "document_id", req.DocumentID)
		return successOutcome(cid, payload)
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		// The service answered, so it is available; only the request was bad.
		g.breaker.RecordSuccess()
		g.logger.Warn("conversion rejected downstream",
			"correlation_id", cid, "document_id", req.DocumentID, "status_code", rejected.StatusCode)
		return rejectedOutcome(cid, rejected.StatusCode, rejected.Details)
	}

	g.breaker.RecordFailure()
	g.logger.Error("conversion service call failed",
		"correlation_id", cid, "document_id", req.DocumentID, "error", err)
	return unavailableOutcome(cid, err.Error())
}

// BreakerState exposes the breaker's current state for health reporting.
func (g *Gateway) BreakerState() BreakerState {
	return g.breaker.State()
}
