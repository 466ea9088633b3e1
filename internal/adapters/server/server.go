// Package server mounts the MCP bridge and the local JSON API on one listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/evanschultz/boardwalk/internal/adapters/server/common"
	"github.com/evanschultz/boardwalk/internal/adapters/server/httpapi"
	"github.com/evanschultz/boardwalk/internal/adapters/server/mcpapi"
	"github.com/evanschultz/boardwalk/internal/app"
)

const (
	defaultBindAddress = "127.0.0.1:8090"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"

	shutdownTimeout = 5 * time.Second
	readyTimeout    = 3 * time.Second
)

// Config selects the listen address and mount points for serve mode.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the app-side collaborators of serve mode. Logger may be nil.
type Dependencies struct {
	Boards common.BoardService
	Logger app.Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NewHandler builds the root router. /readyz answers 503 until the board
// backend answers a board listing.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Boards == nil {
		return nil, Config{}, errors.New("board service dependency is required")
	}
	log := deps.Logger
	if log == nil {
		log = nopLogger{}
	}

	bridge, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Boards)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Boards))

	r := mux.NewRouter()
	r.Use(requestLog(log))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readiness(deps.Boards, log)).Methods(http.MethodGet)
	r.Handle(cfg.MCPEndpoint, bridge)
	r.PathPrefix(cfg.APIEndpoint + "/").Handler(api)
	r.Handle(cfg.APIEndpoint, api)
	return r, cfg, nil
}

// Run listens on cfg.HTTPBind and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	ln, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPBind, err)
	}
	return serve(ctx, ln, handler, cfg, deps.Logger)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler, cfg Config, log app.Logger) error {
	if log == nil {
		log = nopLogger{}
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	log.Info("serving", "addr", ln.Addr().String(), "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "addr", ln.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	return nil
}

// readiness reports whether the board backend is reachable.
func readiness(boards common.BoardService, log app.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if _, err := boards.ListBoards(ctx); err != nil {
			log.Warn("readiness check failed", "err", err)
			writeStatus(w, http.StatusServiceUnavailable, "backend_unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamable MCP responses working behind the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLog(log app.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "took", time.Since(start))
		})
	}
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind); cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ: both %s", cfg.APIEndpoint)
	}
	if cfg.ServerName = strings.TrimSpace(cfg.ServerName); cfg.ServerName == "" {
		cfg.ServerName = "boardwalk"
	}
	if cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion); cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

// normalizeEndpoint returns path as "/a/b", or fallback when path is blank or "/".
func normalizeEndpoint(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "{\"status\":%q}\n", status)
}
