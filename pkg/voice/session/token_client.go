package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
)

// HTTPTokenClient fetches session tokens from the gateway over HTTPS,
// authenticating with the user's bearer token. The provider credential never
// reaches this client; it only ever sees the ephemeral token the gateway
// minted.
type HTTPTokenClient struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewHTTPTokenClient returns a token client for the given gateway.
func NewHTTPTokenClient(baseURL, authToken string) *HTTPTokenClient {
	return &HTTPTokenClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AuthToken:  authToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IssueToken requests a connection credential scoped to sessionID. A failure
// here is terminal for the connection attempt; the caller must not retry
// with a provider key of its own.
func (c *HTTPTokenClient) IssueToken(ctx context.Context, sessionID string) (*api.TokenResponse, error) {
	body, err := json.Marshal(api.TokenRequest{SessionID: sessionID})
	if err != nil {
		return nil, core.NewInternalError(fmt.Sprintf("encode token request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/voice/token", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewInternalError(fmt.Sprintf("build token request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, core.NewTokenError(fmt.Sprintf("request session token: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.NewTokenError(fmt.Sprintf("read token response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error *core.Error `json:"error"`
		}
		if jsonErr := json.Unmarshal(payload, &apiErr); jsonErr == nil && apiErr.Error != nil {
			return nil, apiErr.Error
		}
		return nil, core.NewTokenError(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode))
	}

	var tok api.TokenResponse
	if err := json.Unmarshal(payload, &tok); err != nil {
		return nil, core.NewParseError(fmt.Sprintf("decode token response: %v", err))
	}
	if tok.Token == "" || tok.ConnectionTarget == "" {
		return nil, core.NewTokenError("token response missing token or connection target")
	}
	return &tok, nil
}
