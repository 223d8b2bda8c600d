package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/gateway/auth"
	"github.com/stridelabs/cadence/pkg/gateway/mw"
	"github.com/stridelabs/cadence/pkg/gateway/store"
)

// SessionsHandler serves POST /v1/sessions.
type SessionsHandler struct {
	Store  store.Store
	Logger *slog.Logger
}

func (h SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req api.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, core.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.WorkoutType) == "" {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("workout_type is required", "workout_type"))
		return
	}

	tipsRaw := ""
	if len(req.Tips) > 0 {
		b, err := json.Marshal(req.Tips)
		if err != nil {
			writeError(w, reqID, core.NewInvalidRequestErrorWithParam("tips could not be encoded", "tips"))
			return
		}
		tipsRaw = string(b)
	}
	scheduledFor := req.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = time.Now().UTC()
	}

	sess := &store.TrainingSession{
		ID:                 uuid.NewString(),
		UserID:             principal.UserID,
		WorkoutType:        strings.TrimSpace(req.WorkoutType),
		PlannedDistanceKM:  req.PlannedDistance,
		PlannedDurationMin: req.PlannedDuration,
		Intensity:          strings.TrimSpace(req.Intensity),
		TipsRaw:            tipsRaw,
		ScheduledFor:       scheduledFor,
		Status:             "planned",
	}
	if err := h.Store.CreateSession(r.Context(), sess); err != nil {
		if h.Logger != nil {
			h.Logger.Error("create session failed", "request_id", reqID, "error", err)
		}
		writeError(w, reqID, core.NewInternalError("could not create session"))
		return
	}

	writeJSON(w, http.StatusCreated, api.SessionResponse{
		SessionID:    sess.ID,
		WorkoutType:  sess.WorkoutType,
		Status:       sess.Status,
		ScheduledFor: sess.ScheduledFor,
	})
}
