package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stridelabs/cadence/pkg/gateway/config"
	"github.com/stridelabs/cadence/pkg/gateway/store"
	"github.com/stridelabs/cadence/pkg/gateway/token"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		openStore: func(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
			t.Fatal("openStore should not be called when config load fails")
			return nil, nil, nil
		},
		newMinter: func(ctx context.Context, apiKey string) (token.Minter, error) {
			t.Fatal("newMinter should not be called when config load fails")
			return nil, nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if stderr.String() == "" {
		t.Fatal("expected stderr output for startup error")
	}
}

func TestRunGateway_FailsFastOnBrokenMinter(t *testing.T) {
	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{
				Addr:         "127.0.0.1:0",
				GeminiAPIKey: "bad-key",
				LiveModel:    "models/gemini-2.0-flash-live-001",
				LiveEndpoint: "wss://live.example.com",
				TokenTTL:     30 * time.Minute,
				AuthTokens:   map[string]string{"tok": "user"},
				DatabaseURL:  "postgres://unused",
				MaxBodyBytes: 1 << 20,
			}, nil
		},
		openStore: func(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
			t.Fatal("openStore should not be called when the minter fails")
			return nil, nil, nil
		},
		newMinter: func(ctx context.Context, apiKey string) (token.Minter, error) {
			return nil, errors.New("credential rejected")
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1: the process must refuse to start without a working credential", exitCode)
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
	}
	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v", srv.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v", srv.ReadTimeout)
	}
}
