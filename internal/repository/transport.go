package repository

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Request is one round-trip against the repository contract. Path is
// relative to the repository root, for example "/events/evt-1".
type Request struct {
	Op     string
	Method string
	Path   string
	Body   any
}

// Transport performs repository round-trips and returns the raw envelope.
// Non-success statuses are reported as *TransportError.
type Transport interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// HTTPTransport talks to a repository over HTTP.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport targets baseURL, for example "http://repo:8080/api". A nil
// client gets a 10 second timeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Do sends req and returns the response body.
func (t *HTTPTransport) Do(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &TransportError{Op: req.Op, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, &TransportError{Op: req.Op, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: req.Op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &TransportError{Op: req.Op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: req.Op, Status: resp.StatusCode, Err: errors.New(errorMessage(raw, resp.Status))}
	}
	return raw, nil
}

// errorMessage extracts the envelope error, falling back to the status text.
func errorMessage(body []byte, fallback string) string {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return fallback
}
