package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stridelabs/cadence/pkg/core"
)

type errorEnvelope struct {
	Error *core.Error `json:"error"`
}

func coreErrorFrom(err error, reqID string) (*core.Error, int) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		coreErr = core.NewInternalError(err.Error())
	}
	if coreErr.RequestID == "" {
		coreErr.RequestID = reqID
	}
	return coreErr, statusFor(coreErr.Type)
}

func statusFor(t core.ErrorType) int {
	switch t {
	case core.ErrInvalidRequest, core.ErrParse:
		return http.StatusBadRequest
	case core.ErrAuthentication:
		return http.StatusUnauthorized
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrToken:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, reqID string, err error) {
	coreErr, status := coreErrorFrom(err, reqID)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: coreErr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
