package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

type stubBoards struct{ listErr error }

func (s stubBoards) ListBoards(context.Context) ([]domain.BoardSummary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []domain.BoardSummary{{ID: "b1", Name: "Roadmap"}}, nil
}
func (stubBoards) GetBoard(context.Context, string) (domain.Board, error) { return domain.Board{}, nil }
func (stubBoards) CreateBoard(context.Context, app.CreateBoardInput) error { return nil }
func (stubBoards) CreateList(context.Context, app.CreateListInput) error   { return nil }
func (stubBoards) CreateCard(context.Context, app.CreateCardInput) error   { return nil }
func (stubBoards) UpdateCard(context.Context, app.UpdateCardInput) error   { return nil }
func (stubBoards) EditCard(context.Context, app.EditCardInput) (domain.Card, error) {
	return domain.Card{}, nil
}
func (stubBoards) MoveCard(context.Context, app.MoveCardInput) (app.MoveCardResult, error) {
	return app.MoveCardResult{}, nil
}
func (stubBoards) InviteMember(context.Context, app.InviteMemberInput) error { return nil }
func (stubBoards) Recommendations(context.Context, string) ([]domain.Recommendation, error) {
	return nil, nil
}

// TestNewHandlerRoutes verifies health and API endpoints are mounted.
func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Boards: stubBoards{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != "127.0.0.1:8090" || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boards", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Roadmap") {
		t.Fatalf("boards = %d %q", rec.Code, rec.Body.String())
	}
}

// TestNewHandlerValidation verifies dependency and endpoint checks.
func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing board service error")
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/x/", MCPEndpoint: "x"}, Dependencies{Boards: stubBoards{}}); err == nil {
		t.Fatal("expected endpoint collision error")
	}
}

// TestNormalizeEndpoint verifies trimming and fallback handling.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":         "/api/v1",
		"/":        "/api/v1",
		"api":      "/api",
		" /a/b/ ":  "/a/b",
		"//deep//": "/deep",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

type recordingLogger struct{ debug []string }

func (l *recordingLogger) Debug(msg string, keyvals ...any) {
	l.debug = append(l.debug, fmt.Sprint(append([]any{msg}, keyvals...)...))
}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

// TestReadyzReflectsBackend verifies readiness follows the board backend.
func TestReadyzReflectsBackend(t *testing.T) {
	cases := []struct {
		name   string
		boards stubBoards
		code   int
		body   string
	}{
		{"reachable", stubBoards{}, http.StatusOK, `"ok"`},
		{"unreachable", stubBoards{listErr: errors.New("dial tcp: connection refused")}, http.StatusServiceUnavailable, `"backend_unavailable"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, err := NewHandler(Config{}, Dependencies{Boards: tc.boards})
			if err != nil {
				t.Fatalf("NewHandler() error = %v", err)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.body) {
				t.Fatalf("readyz = %d %q, want %d %s", rec.Code, rec.Body.String(), tc.code, tc.body)
			}
		})
	}
}

// TestRequestsAreLogged verifies the router logs method, path, and status.
func TestRequestsAreLogged(t *testing.T) {
	log := &recordingLogger{}
	handler, _, err := NewHandler(Config{APIEndpoint: "/v2"}, Dependencies{Boards: stubBoards{}, Logger: log})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/boards/b1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v2/boards/b1 = %d", rec.Code)
	}
	if len(log.debug) != 1 || !strings.Contains(log.debug[0], "/v2/boards/b1") || !strings.Contains(log.debug[0], "200") {
		t.Fatalf("unexpected request log %q", log.debug)
	}
}

// TestServeStopsOnCancel verifies serve answers requests and exits cleanly on cancel.
func TestServeStopsOnCancel(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Boards: stubBoards{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, handler, cfg, nil) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve() error = %v", err)
	}
}
