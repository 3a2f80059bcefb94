package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/trainer-scheduler/internal/repository"
)

type repositoryBackend interface {
	ListEvents(ctx context.Context) ([]repository.EventRecord, error)
	CreateEvent(ctx context.Context, payload repository.EventPayload) (repository.EventRecord, error)
	PatchEvent(ctx context.Context, id string, patch repository.EventPatch) (repository.EventRecord, error)
	DeleteEvent(ctx context.Context, id string) error
	ListTrainers(ctx context.Context) ([]repository.TrainerRecord, error)
	PutTrainer(ctx context.Context, id string, payload repository.TrainerPayload) (repository.TrainerRecord, error)
}

// RepositoryHandler serves the event/trainer repository contract. Every
// response is wrapped in a repository.Envelope.
type RepositoryHandler struct {
	backend   repositoryBackend
	responder responder
	logger    *slog.Logger
}

func NewRepositoryHandler(backend repositoryBackend, logger *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{backend: backend, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *RepositoryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	records, err := h.backend.ListEvents(r.Context())
	h.responder.writeEnvelope(r.Context(), w, http.StatusOK, records, err)
}

func (h *RepositoryHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload repository.EventPayload
	if err := decodeBody(r, &payload); err != nil {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, err)
		return
	}

	record, err := h.backend.CreateEvent(r.Context(), payload)
	if err == nil {
		handlerLogger(r.Context(), h.logger, "repository", "CreateEvent", "event_id", record.ID).Info("event stored")
	}
	h.responder.writeEnvelope(r.Context(), w, http.StatusCreated, record, err)
}

func (h *RepositoryHandler) PatchEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, fmt.Errorf("%w: %v", repository.ErrInvalidPayload, errInvalidEventID))
		return
	}

	var patch repository.EventPatch
	if err := decodeBody(r, &patch); err != nil {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, err)
		return
	}

	record, err := h.backend.PatchEvent(r.Context(), id, patch)
	h.responder.writeEnvelope(r.Context(), w, http.StatusOK, record, err)
}

func (h *RepositoryHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, fmt.Errorf("%w: %v", repository.ErrInvalidPayload, errInvalidEventID))
		return
	}

	err := h.backend.DeleteEvent(r.Context(), id)
	if err == nil {
		handlerLogger(r.Context(), h.logger, "repository", "DeleteEvent", "event_id", id).Info("event removed")
	}
	h.responder.writeEnvelope(r.Context(), w, http.StatusOK, nil, err)
}

func (h *RepositoryHandler) ListTrainers(w http.ResponseWriter, r *http.Request) {
	records, err := h.backend.ListTrainers(r.Context())
	h.responder.writeEnvelope(r.Context(), w, http.StatusOK, records, err)
}

func (h *RepositoryHandler) PutTrainer(w http.ResponseWriter, r *http.Request) {
	id, ok := TrainerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, fmt.Errorf("%w: %v", repository.ErrInvalidPayload, errInvalidTrainer))
		return
	}

	var payload repository.TrainerPayload
	if err := decodeBody(r, &payload); err != nil {
		h.responder.writeEnvelope(r.Context(), w, http.StatusBadRequest, nil, err)
		return
	}

	record, err := h.backend.PutTrainer(r.Context(), id, payload)
	h.responder.writeEnvelope(r.Context(), w, http.StatusOK, record, err)
}

// decodeBody reads a JSON request body into target. Failures match
// repository.ErrInvalidPayload.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing body", repository.ErrInvalidPayload)
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidPayload, err)
	}
	return nil
}
