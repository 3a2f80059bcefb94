package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// LocalTransport serves the repository contract in process from a Backend,
// producing the same envelopes as the HTTP endpoints.
type LocalTransport struct {
	backend *Backend
}

// NewLocalTransport wraps backend.
func NewLocalTransport(backend *Backend) *LocalTransport {
	return &LocalTransport{backend: backend}
}

// Do dispatches req to the backend.
func (t *LocalTransport) Do(ctx context.Context, req Request) ([]byte, error) {
	resource, id, err := splitPath(req.Path)
	if err != nil {
		return nil, &TransportError{Op: req.Op, Status: http.StatusNotFound, Err: err}
	}

	var data any
	switch {
	case resource == "events" && id == "" && req.Method == http.MethodGet:
		data, err = t.backend.ListEvents(ctx)
	case resource == "events" && id == "" && req.Method == http.MethodPost:
		var payload EventPayload
		if err = rebind(req.Body, &payload); err == nil {
			data, err = t.backend.CreateEvent(ctx, payload)
		}
	case resource == "events" && id != "" && req.Method == http.MethodPatch:
		var patch EventPatch
		if err = rebind(req.Body, &patch); err == nil {
			data, err = t.backend.PatchEvent(ctx, id, patch)
		}
	case resource == "events" && id != "" && req.Method == http.MethodDelete:
		err = t.backend.DeleteEvent(ctx, id)
	case resource == "trainers" && id == "" && req.Method == http.MethodGet:
		data, err = t.backend.ListTrainers(ctx)
	case resource == "trainers" && id != "" && req.Method == http.MethodPut:
		var payload TrainerPayload
		if err = rebind(req.Body, &payload); err == nil {
			data, err = t.backend.PutTrainer(ctx, id, payload)
		}
	default:
		return nil, &TransportError{Op: req.Op, Status: http.StatusMethodNotAllowed, Err: fmt.Errorf("%s %s is not supported", req.Method, req.Path)}
	}
	if err != nil {
		return nil, &TransportError{Op: req.Op, Status: StatusFor(err), Err: err}
	}

	body, err := json.Marshal(Envelope{Success: true, Data: data})
	if err != nil {
		return nil, &TransportError{Op: req.Op, Err: fmt.Errorf("encode envelope: %w", err)}
	}
	return body, nil
}

func splitPath(path string) (resource, id string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		id, err = url.PathUnescape(parts[1])
		if err != nil || id == "" {
			return "", "", fmt.Errorf("invalid resource path %q", path)
		}
		return parts[0], id, nil
	default:
		return "", "", fmt.Errorf("unknown resource path %q", path)
	}
}

// rebind copies body into target through its JSON form, so in-process
// requests see exactly what an HTTP server would decode.
func rebind(body, target any) error {
	if body == nil {
		return fmt.Errorf("%w: missing body", ErrInvalidPayload)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
