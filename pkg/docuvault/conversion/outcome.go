package conversion

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Request carries one conversion attempt to the downstream service. It is
// request-scoped: built, sent and discarded within a single Convert call.
type Request struct {
	DocumentID    uuid.UUID      `json:"document_id"`
	OwnerID       uuid.UUID      `json:"owner_id"`
	SourceFormat  string         `json:"source_format,omitempty"`
	TargetFormat  string         `json:"target_format"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id"`
}

// OutcomeStatus tags the variant of a conversion Outcome.
type OutcomeStatus string

// Outcome status constants (typed).
const (
	// StatusSuccess carries the downstream payload.
	StatusSuccess OutcomeStatus = "success"
	// StatusRejected is a deterministic downstream 4xx: the request was bad,
	// the service is fine. Retrying the same request will fail the same way.
	StatusRejected OutcomeStatus = "rejected"
	// StatusUnavailable means the breaker is open or the call timed out or
	// errored; the request may succeed later.
	StatusUnavailable OutcomeStatus = "unavailable"
	// StatusFailure is a local error (bad input, unknown document); the
	// downstream service was never involved.
	StatusFailure OutcomeStatus = "failure"
)

// Outcome is the tagged result of a Convert call. Exactly the fields for its
// Status variant are populated; CorrelationID is always set so callers can
// trace the attempt end to end.
type Outcome struct {
	Status        OutcomeStatus   `json:"status"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	StatusCode    int             `json:"status_code,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Message       string          `json:"message,omitempty"`
}

func successOutcome(correlationID string, payload json.RawMessage) Outcome {
	return Outcome{Status: StatusSuccess, CorrelationID: correlationID, Payload: payload}
}

func rejectedOutcome(correlationID string, statusCode int, details json.RawMessage) Outcome {
	return Outcome{Status: StatusRejected, CorrelationID: correlationID, StatusCode: statusCode, Details: details}
}

func unavailableOutcome(correlationID, reason string) Outcome {
	return Outcome{Status: StatusUnavailable, CorrelationID: correlationID, Reason: reason}
}

func failureOutcome(correlationID, message string) Outcome {
	return Outcome{Status: StatusFailure, CorrelationID: correlationID, Message: message}
}

// NewCorrelationID generates a fresh correlation identifier for one external
// call attempt.
func NewCorrelationID() string {
	return fmt.Sprintf("conv-%s", uuid.New())
}
