package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psaab/foamdict/pkg/dictstore"
	"github.com/psaab/foamdict/pkg/logging"
)

// Config configures the API server.
type Config struct {
	Addr string
	// TLSCert and TLSKey enable HTTPS on Addr when both are set.
	TLSCert string
	TLSKey  string
	Auth    *AuthConfig // nil = no authentication
	Store   *dictstore.Store
	Logs    *logging.RecordBuffer
	// AllowEnv lets expansion fall back to the process environment.
	AllowEnv bool
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	tlsCert    string
	tlsKey     string
	store      *dictstore.Store
	logs       *logging.RecordBuffer
	allowEnv   bool
	startTime  time.Time
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		tlsCert:   cfg.TLSCert,
		tlsKey:    cfg.TLSKey,
		store:     cfg.Store,
		logs:      cfg.Logs,
		allowEnv:  cfg.AllowEnv,
		startTime: time.Now(),
	}

	var handler http.Handler = s.routes()
	if cfg.Auth != nil {
		handler = authMiddleware(*cfg.Auth, handler)
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Prometheus metrics with isolated registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(s))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Queries against the active dictionary
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/lookup", s.lookupHandler)
	mux.HandleFunc("GET /api/v1/expand", s.expandHandler)
	mux.HandleFunc("GET /api/v1/digest", s.digestHandler)
	mux.HandleFunc("GET /api/v1/export", s.exportHandler)

	// Candidate editing
	mux.HandleFunc("POST /api/v1/config/enter", s.configEnterHandler)
	mux.HandleFunc("POST /api/v1/config/exit", s.configExitHandler)
	mux.HandleFunc("GET /api/v1/config/status", s.configStatusHandler)
	mux.HandleFunc("POST /api/v1/config/set", s.configSetHandler)
	mux.HandleFunc("POST /api/v1/config/delete", s.configDeleteHandler)
	mux.HandleFunc("POST /api/v1/config/load", s.configLoadHandler)
	mux.HandleFunc("POST /api/v1/config/commit", s.configCommitHandler)
	mux.HandleFunc("POST /api/v1/config/rollback", s.configRollbackHandler)
	mux.HandleFunc("GET /api/v1/config/show", s.configShowHandler)
	mux.HandleFunc("GET /api/v1/config/compare", s.configCompareHandler)
	mux.HandleFunc("GET /api/v1/config/history", s.configHistoryHandler)

	// Recent warnings
	mux.HandleFunc("GET /api/v1/logs", s.logsHandler)
	mux.HandleFunc("GET /api/v1/logs/stream", s.logStreamHandler)

	return mux
}

// Handler returns the HTTP handler, including authentication.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.tlsCert != "" && s.tlsKey != "" {
			slog.Info("HTTPS API server listening", "addr", s.httpServer.Addr)
			err = s.httpServer.ListenAndServeTLS(s.tlsCert, s.tlsKey)
		} else {
			slog.Info("HTTP API server listening", "addr", s.httpServer.Addr)
			err = s.httpServer.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
