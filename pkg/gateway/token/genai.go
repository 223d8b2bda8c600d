package token

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GenaiMinter mints single-use ephemeral tokens through the provider's
// auth-token exchange. The provider API key is held by the underlying
// client and is never part of a minted token.
type GenaiMinter struct {
	client *genai.Client
}

// NewGenaiMinter builds a minter over the Gemini API. It fails immediately
// when the credential is unusable so a broken deployment cannot issue
// tokens.
func NewGenaiMinter(ctx context.Context, apiKey string) (*GenaiMinter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenaiMinter{client: client}, nil
}

func (m *GenaiMinter) MintToken(ctx context.Context, model string, expireAt time.Time) (string, error) {
	tok, err := m.client.AuthTokens.Create(ctx, &genai.CreateAuthTokenConfig{
		Uses:       genai.Ptr[int32](1),
		ExpireTime: expireAt,
		LiveConnectConstraints: &genai.LiveConnectConstraints{
			Model: model,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create auth token: %w", err)
	}
	return tok.Name, nil
}
