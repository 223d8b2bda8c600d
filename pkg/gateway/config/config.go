package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Provider credential used to mint ephemeral session tokens. It never
	// leaves the gateway process.
	GeminiAPIKey string

	// Live model the minted tokens are scoped to.
	LiveModel string

	// Endpoint clients connect their live sessions to.
	LiveEndpoint string

	TokenTTL time.Duration

	// Bearer tokens accepted on the API, mapped to user IDs. Format:
	// token:user_id pairs, comma separated.
	AuthTokens map[string]string

	DatabaseURL string

	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration

	MaxBodyBytes int64
}

// LoadFromEnv builds the configuration from the environment and fails fast
// on anything the gateway cannot run without, notably the provider
// credential. A missing credential must never surface later as a half-open
// session.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("CADENCE_ADDR", ":8080"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LiveModel:           envOr("CADENCE_LIVE_MODEL", "models/gemini-2.0-flash-live-001"),
		LiveEndpoint:        envOr("CADENCE_LIVE_ENDPOINT", "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"),
		TokenTTL:            envDurationOr("CADENCE_TOKEN_TTL", 30*time.Minute),
		AuthTokens:          make(map[string]string),
		DatabaseURL:         strings.TrimSpace(os.Getenv("CADENCE_DATABASE_URL")),
		ReadHeaderTimeout:   envDurationOr("CADENCE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("CADENCE_READ_TIMEOUT", 30*time.Second),
		HandlerTimeout:      envDurationOr("CADENCE_TOTAL_REQUEST_TIMEOUT", time.Minute),
		ShutdownGracePeriod: envDurationOr("CADENCE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		MaxBodyBytes:        envInt64Or("CADENCE_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	for _, pair := range splitCSV(os.Getenv("CADENCE_AUTH_TOKENS")) {
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(token) == "" || strings.TrimSpace(userID) == "" {
			return Config{}, fmt.Errorf("CADENCE_AUTH_TOKENS entries must be token:user_id pairs")
		}
		cfg.AuthTokens[strings.TrimSpace(token)] = strings.TrimSpace(userID)
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if strings.TrimSpace(cfg.LiveModel) == "" {
		return Config{}, fmt.Errorf("CADENCE_LIVE_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.LiveEndpoint) == "" {
		return Config{}, fmt.Errorf("CADENCE_LIVE_ENDPOINT must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("CADENCE_TOKEN_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("CADENCE_DATABASE_URL must be set")
	}
	if len(cfg.AuthTokens) == 0 {
		return Config{}, fmt.Errorf("CADENCE_AUTH_TOKENS must be set")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("CADENCE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("CADENCE_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("CADENCE_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("CADENCE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("CADENCE_MAX_BODY_BYTES must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
