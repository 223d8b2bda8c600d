package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/gateway/auth"
	"github.com/stridelabs/cadence/pkg/gateway/metrics"
	"github.com/stridelabs/cadence/pkg/gateway/mw"
	"github.com/stridelabs/cadence/pkg/gateway/store"
)

// CompletionHandler serves POST /v1/sessions/{id}/completion.
type CompletionHandler struct {
	Store   store.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (h CompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, reqID, core.NewInvalidRequestError("method not allowed"))
		return
	}
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, reqID, core.NewAuthenticationError("no authenticated user"))
		return
	}
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("session id is required", "id"))
		return
	}

	var req api.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, core.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if req.SessionID != "" && req.SessionID != sessionID {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("session id mismatch", "session_id"))
		return
	}
	if req.RPE != nil && (*req.RPE < 1 || *req.RPE > 10) {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("rpe must be between 1 and 10", "rpe"))
		return
	}

	sess, err := h.Store.CompleteSession(r.Context(), store.Completion{
		SessionID:         sessionID,
		UserID:            principal.UserID,
		ActualDistanceKM:  req.ActualDistance,
		ActualDurationMin: req.ActualDuration,
		RPE:               req.RPE,
		Notes:             req.Notes,
		Transcript:        req.Transcript,
		CompletedAt:       time.Now().UTC(),
	})
	if errors.Is(err, store.ErrNotFound) {
		// A session owned by someone else looks exactly like a missing one.
		if h.Metrics != nil {
			h.Metrics.RecordCompletion("not_found")
		}
		writeError(w, reqID, core.NewNotFoundError("session not found"))
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("complete session failed", "request_id", reqID, "session_id", sessionID, "error", err)
		}
		if h.Metrics != nil {
			h.Metrics.RecordCompletion("error")
		}
		writeError(w, reqID, core.NewInternalError("could not record completion"))
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordCompletion("ok")
		h.Metrics.RecordRequest("completion", "ok", time.Since(start))
	}
	completedAt := time.Now().UTC()
	if sess.CompletedAt != nil {
		completedAt = *sess.CompletedAt
	}
	writeJSON(w, http.StatusOK, api.CompletionResponse{
		SessionID:   sess.ID,
		CompletedAt: completedAt,
	})
}
