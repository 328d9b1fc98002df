package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/enso/internal/domain/geometry"
)

// maxBodyBytes caps attempt bodies; path length is validated separately.
const maxBodyBytes = 4 << 20

// SessionHandler serves session lifecycle, attempts and overlays.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type createSessionRequest struct {
	Player string `json:"player"`
}

type attemptRequest struct {
	AttemptID string           `json:"attempt_id"`
	Points    []geometry.Point `json:"points"`
}

func (a attemptRequest) validate() error {
	if a.Points == nil {
		return errors.New("missing points")
	}
	return nil
}

// HandleCreate handles POST /sessions. The body is optional.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.CreateSession(r.Context(), strings.TrimSpace(req.Player))
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	view, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.end_session"
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAttempt handles POST /sessions/{id}/attempts.
func (h *SessionHandler) HandleAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_attempt"
	var req attemptRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SubmitAttempt(r.Context(), r.PathValue("id"), strings.TrimSpace(req.AttemptID), geometry.Path(req.Points))
	if err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleOverlay handles GET /sessions/{id}/overlay.png.
func (h *SessionHandler) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.overlay"
	var buf bytes.Buffer
	if err := h.deps.WriteOverlay(r.Context(), r.PathValue("id"), &buf); err != nil {
		writeFailure(r.Context(), w, op, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// decodeOptional decodes a JSON body into v, accepting an empty body.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
