package server

import (
	"log/slog"
	"net/http"

	"github.com/stridelabs/cadence/pkg/gateway/config"
	"github.com/stridelabs/cadence/pkg/gateway/handlers"
	"github.com/stridelabs/cadence/pkg/gateway/metrics"
	"github.com/stridelabs/cadence/pkg/gateway/mw"
	"github.com/stridelabs/cadence/pkg/gateway/store"
	"github.com/stridelabs/cadence/pkg/gateway/token"
)

type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	mux     *http.ServeMux
	metrics *metrics.Metrics

	store  store.Store
	issuer *token.Issuer
}

func New(cfg config.Config, st store.Store, issuer *token.Issuer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		metrics: metrics.New("cadence"),
		store:   st,
		issuer:  issuer,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Store: s.store})
	s.mux.Handle("/metrics", s.metrics.Handler())

	s.mux.Handle("POST /v1/voice/token", handlers.TokenHandler{
		Issuer:  s.issuer,
		Metrics: s.metrics,
		Logger:  s.logger,
	})
	s.mux.Handle("POST /v1/sessions", handlers.SessionsHandler{
		Store:  s.store,
		Logger: s.logger,
	})
	s.mux.Handle("POST /v1/sessions/{id}/completion", handlers.CompletionHandler{
		Store:   s.store,
		Metrics: s.metrics,
		Logger:  s.logger,
	})
}

// isPublic reports whether the path is served without authentication, so
// probes and scrapers do not need credentials.
func isPublic(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}

func (s *Server) Handler() http.Handler {
	authed := mw.Auth(s.cfg, s.mux)
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			s.mux.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})
	h = mw.MaxBody(s.cfg.MaxBodyBytes, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
