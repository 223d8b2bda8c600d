package auth

import (
	"context"
	"net/http"
	"strings"
)

// Principal is the authenticated user behind a request.
type Principal struct {
	UserID string
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// ParseBearer extracts the bearer token from the Authorization header.
func ParseBearer(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// Resolve maps a bearer token to a user principal using the configured
// token table.
func Resolve(tokens map[string]string, r *http.Request) (*Principal, bool) {
	token, ok := ParseBearer(r)
	if !ok {
		return nil, false
	}
	userID, ok := tokens[token]
	if !ok {
		return nil, false
	}
	return &Principal{UserID: userID}, true
}
