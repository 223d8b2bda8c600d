// Package token mints short-lived session credentials for the live voice
// service.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/gateway/briefing"
)

// Minter exchanges the provider credential for an ephemeral token. The raw
// provider key stays behind this interface; nothing minted here carries it.
type Minter interface {
	MintToken(ctx context.Context, model string, expireAt time.Time) (string, error)
}

// Issuer produces one credential per session request: an ephemeral token,
// the connection target it works against, the coaching context when the
// session belongs to the requester, and the rendered system instruction.
type Issuer struct {
	briefing *briefing.Builder
	minter   Minter
	model    string
	endpoint string
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewIssuer wires the issuer. endpoint is the live service URL the client
// will connect to with the minted token.
func NewIssuer(b *briefing.Builder, m Minter, model, endpoint string, ttl time.Duration, logger *slog.Logger) *Issuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{
		briefing: b,
		minter:   m,
		model:    model,
		endpoint: endpoint,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue mints a token for one session. sessionID may be empty; a session
// that is missing or owned by another user still gets a token, just without
// coaching context.
func (i *Issuer) Issue(ctx context.Context, userID, sessionID string) (*api.TokenResponse, error) {
	sc := i.briefing.Build(ctx, userID, sessionID)
	instruction := briefing.SystemInstruction(sc)

	expireAt := i.now().Add(i.ttl)
	tok, err := i.minter.MintToken(ctx, i.model, expireAt)
	if err != nil {
		return nil, core.NewTokenError(fmt.Sprintf("mint session token: %v", err))
	}

	target, err := connectionTarget(i.endpoint, tok)
	if err != nil {
		return nil, core.NewInternalError(fmt.Sprintf("build connection target: %v", err))
	}
	i.logger.Info("session token issued",
		"user_id", userID,
		"session_id", sessionID,
		"has_context", sc != nil,
		"expires_at", expireAt,
	)
	return &api.TokenResponse{
		Token:             tok,
		ConnectionTarget:  target,
		ExpiresAt:         expireAt,
		SessionContext:    sc,
		SystemInstruction: instruction,
		Model:             i.model,
	}, nil
}

func connectionTarget(endpoint, tok string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
