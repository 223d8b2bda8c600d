package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/gateway/auth"
	"github.com/stridelabs/cadence/pkg/gateway/metrics"
	"github.com/stridelabs/cadence/pkg/gateway/mw"
	"github.com/stridelabs/cadence/pkg/gateway/token"
)

// TokenHandler serves POST /v1/voice/token.
type TokenHandler struct {
	Issuer  *token.Issuer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (h TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	// An empty body is a valid unlinked session request.
	var req api.TokenRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, reqID, core.NewInvalidRequestError("invalid JSON body"))
			return
		}
	}

	resp, err := h.Issuer.Issue(r.Context(), principal.UserID, req.SessionID)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordError("token", string(core.ErrToken))
		}
		writeError(w, reqID, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordTokenIssued(resp.SessionContext != nil)
		h.Metrics.RecordRequest("token", "ok", time.Since(start))
	}
	writeJSON(w, http.StatusOK, resp)
}
