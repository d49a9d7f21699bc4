package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/coffeeshop-env/internal/environment"
	"github.com/eugenenazirov/coffeeshop-env/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes the variant registry over HTTP.
type Handler struct {
	storage storage.Storage
	strict  bool

	clock func() time.Time

	mu              sync.RWMutex
	activeUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithStrict refuses to activate variants that still carry placeholders.
func WithStrict(strict bool) HandlerOption {
	return func(h *Handler) {
		h.strict = strict
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.activeUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	_ = r
	name, env, updatedAt := h.activeSnapshot()
	resp := environmentResponse{
		Variant:     name,
		Environment: env,
		UpdatedAt:   updatedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEnvironmentFile serves the bare record in the shape the frontend
// bundles as its environment module.
func (h *Handler) handleEnvironmentFile(w http.ResponseWriter, r *http.Request) {
	_ = r
	_, env := h.storage.Active()
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, env)
}

func (h *Handler) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	_ = r
	active, _ := h.storage.Active()
	resp := variantsResponse{
		Variants: h.storage.Names(),
		Active:   active,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutEnvironment(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Variant == "" {
		writeError(w, http.StatusBadRequest, "Invalid variant", "variant must not be empty")
		return
	}

	env, err := h.storage.Get(req.Variant)
	if err != nil {
		if errors.Is(err, storage.ErrUnknownVariant) {
			writeError(w, http.StatusBadRequest, "Invalid variant", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	if h.strict {
		if err := environment.Check(env); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Variant not deployable", err.Error(),
				"Replace the placeholder values before activating this variant")
			return
		}
	}

	name, env, updatedAt, err := h.switchActive(req.Variant)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := environmentResponse{
		Variant:     name,
		Environment: env,
		UpdatedAt:   updatedAt,
		Message:     "Active environment updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

// activeSnapshot reads the selection and its stamp under one lock.
func (h *Handler) activeSnapshot() (string, environment.Environment, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	name, env := h.storage.Active()
	return name, env, h.activeUpdatedAt
}

// switchActive selects variant and stamps it under one lock, so concurrent
// switches never report another request's variant or timestamp.
func (h *Handler) switchActive(variant string) (string, environment.Environment, time.Time, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.storage.SetActive(variant); err != nil {
		return "", environment.Environment{}, time.Time{}, err
	}
	h.activeUpdatedAt = h.clock()
	name, env := h.storage.Active()
	return name, env, h.activeUpdatedAt, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type selectRequest struct {
	Variant string `json:"variant"`
}

type environmentResponse struct {
	Variant     string                  `json:"variant"`
	Environment environment.Environment `json:"environment"`
	UpdatedAt   time.Time               `json:"updatedAt"`
	Message     string                  `json:"message,omitempty"`
}

type variantsResponse struct {
	Variants []string `json:"variants"`
	Active   string   `json:"active"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
