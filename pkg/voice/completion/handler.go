package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
)

// Submitter records a confirmed workout completion.
type Submitter interface {
	SubmitCompletion(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error)
}

// Handler holds at most one pending draft and guarantees a confirmed draft
// is submitted exactly once. A failed submission surfaces the error and
// leaves the draft pending; it is never retried behind the user's back, the
// user must confirm again.
type Handler struct {
	submit Submitter

	mu       sync.Mutex
	draft    *Draft
	inFlight bool
}

// NewHandler returns a handler that records completions via submit.
func NewHandler(submit Submitter) *Handler {
	return &Handler{submit: submit}
}

// Propose replaces any pending draft with one built from the tool call.
func (h *Handler) Propose(sessionID string, draft *Draft) {
	h.mu.Lock()
	h.draft = draft
	if h.draft != nil && h.draft.SessionID == "" {
		h.draft.SessionID = sessionID
	}
	h.mu.Unlock()
}

// Pending returns the draft awaiting confirmation, or nil.
func (h *Handler) Pending() *Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft
}

// Cancel discards the pending draft without recording anything.
func (h *Handler) Cancel() {
	h.mu.Lock()
	h.draft = nil
	h.mu.Unlock()
}

// Confirm submits the pending draft together with the session transcript.
// The draft is cleared only on success; after a failure it stays pending so
// the user can confirm again or cancel. At most one submission is in flight
// at a time.
func (h *Handler) Confirm(ctx context.Context, transcript string) (*api.CompletionResponse, error) {
	h.mu.Lock()
	if h.inFlight {
		h.mu.Unlock()
		return nil, core.NewInvalidRequestError("completion submission already in progress")
	}
	draft := h.draft
	if draft == nil {
		h.mu.Unlock()
		return nil, core.NewInvalidRequestError("no completion draft to confirm")
	}
	if draft.SessionID == "" {
		h.mu.Unlock()
		return nil, core.NewInvalidRequestError("completion draft has no session")
	}
	h.inFlight = true
	h.mu.Unlock()

	resp, err := h.submit.SubmitCompletion(ctx, api.CompletionRequest{
		SessionID:      draft.SessionID,
		ActualDistance: draft.ActualDistance,
		ActualDuration: draft.ActualDuration,
		RPE:            draft.RPE,
		Notes:          draft.Notes,
		Transcript:     transcript,
	})

	h.mu.Lock()
	h.inFlight = false
	// A Cancel or Propose that landed during the submission wins; only the
	// draft we actually recorded is cleared.
	if err == nil && h.draft == draft {
		h.draft = nil
	}
	h.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// HTTPSubmitter records completions against the gateway.
type HTTPSubmitter struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewHTTPSubmitter returns a submitter for the given gateway.
func NewHTTPSubmitter(baseURL, authToken string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AuthToken:  authToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSubmitter) SubmitCompletion(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, core.NewInternalError(fmt.Sprintf("encode completion: %v", err))
	}
	url := fmt.Sprintf("%s/v1/sessions/%s/completion", s.BaseURL, req.SessionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewInternalError(fmt.Sprintf("build completion request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.AuthToken)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, core.NewTransportError(fmt.Sprintf("submit completion: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.NewTransportError(fmt.Sprintf("read completion response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error *core.Error `json:"error"`
		}
		if jsonErr := json.Unmarshal(payload, &apiErr); jsonErr == nil && apiErr.Error != nil {
			return nil, apiErr.Error
		}
		return nil, core.NewInternalError(fmt.Sprintf("completion endpoint returned status %d", resp.StatusCode))
	}

	var out api.CompletionResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, core.NewParseError(fmt.Sprintf("decode completion response: %v", err))
	}
	return &out, nil
}
