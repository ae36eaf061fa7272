package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Caller issues one conversion attempt against the downstream service.
// Implementations must bound the call's wall-clock duration.
type Caller interface {
	Call(ctx context.Context, req Request) (json.RawMessage, error)
}

// RejectedError is a deterministic downstream rejection (4xx). It reflects a
// bad request, not service unavailability, so the gateway never counts it as
// a breaker failure.
type RejectedError struct {
	StatusCode int
	Details    json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("conversion request rejected with status %d", e.StatusCode)
}

// HTTPCaller calls the conversion microservice over HTTP.
type HTTPCaller struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPCaller constructs a conversion service caller. Every call is bounded
// by the given timeout.
func NewHTTPCaller(baseURL string, timeout time.Duration) *HTTPCaller {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCaller{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call posts the conversion request downstream and classifies the response.
// 2xx returns the payload, 4xx returns *RejectedError, anything else
// (including timeouts and connection failures) returns an ordinary error the
// gateway treats as a breaker failure.
func (c *HTTPCaller) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode conversion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/convert_document", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build conversion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Correlation-Id", req.CorrelationID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("conversion service timed out after %s: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("conversion service unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read conversion response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &RejectedError{StatusCode: resp.StatusCode, Details: payload}
	default:
		return nil, fmt.Errorf("conversion service returned status %d", resp.StatusCode)
	}
}
