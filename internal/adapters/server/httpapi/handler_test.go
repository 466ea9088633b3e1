package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// stubBoards provides deterministic board responses for handler tests.
type stubBoards struct {
	boards []domain.BoardSummary
	board  domain.Board
	recs   []domain.Recommendation
	err    error

	moveResult app.MoveCardResult

	lastCreateBoard app.CreateBoardInput
	lastCreateList  app.CreateListInput
	lastCreateCard  app.CreateCardInput
	lastEdit        app.EditCardInput
	lastMove        app.MoveCardInput
	lastInvite      app.InviteMemberInput
	lastBoardID     string
}

func (s *stubBoards) ListBoards(context.Context) ([]domain.BoardSummary, error) {
	return s.boards, s.err
}

func (s *stubBoards) GetBoard(_ context.Context, id string) (domain.Board, error) {
	s.lastBoardID = id
	if s.err != nil {
		return domain.Board{}, s.err
	}
	return s.board, nil
}

func (s *stubBoards) CreateBoard(_ context.Context, in app.CreateBoardInput) error {
	s.lastCreateBoard = in
	return s.err
}

func (s *stubBoards) CreateList(_ context.Context, in app.CreateListInput) error {
	s.lastCreateList = in
	return s.err
}

func (s *stubBoards) CreateCard(_ context.Context, in app.CreateCardInput) error {
	s.lastCreateCard = in
	return s.err
}

func (s *stubBoards) UpdateCard(context.Context, app.UpdateCardInput) error {
	return s.err
}

func (s *stubBoards) EditCard(_ context.Context, in app.EditCardInput) (domain.Card, error) {
	s.lastEdit = in
	if s.err != nil {
		return domain.Card{}, s.err
	}
	return domain.Card{ID: in.CardID, Title: "edited"}, nil
}

func (s *stubBoards) MoveCard(_ context.Context, in app.MoveCardInput) (app.MoveCardResult, error) {
	s.lastMove = in
	return s.moveResult, s.err
}

func (s *stubBoards) InviteMember(_ context.Context, in app.InviteMemberInput) error {
	s.lastInvite = in
	return s.err
}

func (s *stubBoards) Recommendations(_ context.Context, id string) ([]domain.Recommendation, error) {
	s.lastBoardID = id
	return s.recs, s.err
}

type backendErr struct{ msg string }

func (e backendErr) Error() string         { return "409: " + e.msg }
func (e backendErr) ServerMessage() string { return e.msg }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeBody decodes one JSON response body into the requested type.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

// TestHandlerListBoards verifies the board index envelope.
func TestHandlerListBoards(t *testing.T) {
	stub := &stubBoards{boards: []domain.BoardSummary{{ID: "b1", Name: "Roadmap"}}}
	rec := do(t, NewHandler(stub), http.MethodGet, "/boards", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeBody[struct {
		Boards []domain.BoardSummary `json:"boards"`
	}](t, rec)
	if len(got.Boards) != 1 || got.Boards[0].Name != "Roadmap" {
		t.Fatalf("unexpected boards %#v", got.Boards)
	}
}

// TestHandlerEmptyIndexUsesArray verifies nil results encode as [].
func TestHandlerEmptyIndexUsesArray(t *testing.T) {
	rec := do(t, NewHandler(&stubBoards{}), http.MethodGet, "/boards", "")
	if body := strings.TrimSpace(rec.Body.String()); body != `{"boards":[]}` {
		t.Fatalf("unexpected body %s", body)
	}
	rec = do(t, NewHandler(&stubBoards{}), http.MethodGet, "/boards/b1/recommendations", "")
	if body := strings.TrimSpace(rec.Body.String()); body != `{"recommendations":[]}` {
		t.Fatalf("unexpected body %s", body)
	}
}

// TestHandlerGetBoardNotFound verifies 404 mapping for missing boards.
func TestHandlerGetBoardNotFound(t *testing.T) {
	stub := &stubBoards{err: fmt.Errorf("load: %w", app.ErrNotFound)}
	rec := do(t, NewHandler(stub), http.MethodGet, "/boards/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeBody[ErrorEnvelope](t, rec)
	if env.Error.Code != "not_found" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}
	if stub.lastBoardID != "missing" {
		t.Fatalf("expected route var forwarded, got %q", stub.lastBoardID)
	}
}

// TestHandlerCreateCard verifies create-card body and route mapping.
func TestHandlerCreateCard(t *testing.T) {
	stub := &stubBoards{}
	body := `{"title":"Ship","priority":"High","status":"Todo","due_date":"2026-04-01"}`
	rec := do(t, NewHandler(stub), http.MethodPost, "/boards/b1/lists/A/cards", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	in := stub.lastCreateCard
	if in.BoardID != "b1" || in.ListID != "A" || in.Title != "Ship" || in.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected create input %#v", in)
	}
	if domain.FormatDueDate(in.DueDate) != "2026-04-01" {
		t.Fatalf("unexpected due date %v", in.DueDate)
	}
}

// TestHandlerRejectsMalformedBodies verifies strict decoding.
func TestHandlerRejectsMalformedBodies(t *testing.T) {
	h := NewHandler(&stubBoards{})
	for _, body := range []string{`{"name":"x","extra":1}`, `{"name":"x"}{}`, `not json`} {
		rec := do(t, h, http.MethodPost, "/boards", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if env := decodeBody[ErrorEnvelope](t, rec); env.Error.Code != "invalid_request" {
			t.Fatalf("body %q: unexpected code %q", body, env.Error.Code)
		}
	}
	rec := do(t, h, http.MethodPost, "/boards/b1/lists/A/cards", `{"title":"x","due_date":"tomorrow"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad due date, got %d", rec.Code)
	}
}

// TestHandlerEditCardForwardsPartialFields verifies nil fields stay nil.
func TestHandlerEditCardForwardsPartialFields(t *testing.T) {
	stub := &stubBoards{}
	rec := do(t, NewHandler(stub), http.MethodPatch, "/boards/b1/cards/card1", `{"status":"Done","clear_due":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	in := stub.lastEdit
	if in.Title != nil || in.Status == nil || *in.Status != "Done" || !in.ClearDue || in.CardID != "card1" {
		t.Fatalf("unexpected edit input %#v", in)
	}
}

// TestHandlerMoveCardFailureCarriesBoard verifies the reconciled board is returned on rejection.
func TestHandlerMoveCardFailureCarriesBoard(t *testing.T) {
	stub := &stubBoards{
		err:        fmt.Errorf("move card card1: %w", backendErr{msg: "Position out of range"}),
		moveResult: app.MoveCardResult{Sent: true, Board: domain.Board{ID: "b1", Name: "Roadmap"}},
	}
	rec := do(t, NewHandler(stub), http.MethodPost, "/boards/b1/cards/card1/move", `{"list_id":"B","position":7}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	env := decodeBody[ErrorEnvelope](t, rec)
	if env.Error.Message != "Position out of range" || env.Error.Context["board"] == nil {
		t.Fatalf("unexpected error envelope %#v", env)
	}
	if stub.lastMove != (app.MoveCardInput{BoardID: "b1", CardID: "card1", ToListID: "B", Position: 7}) {
		t.Fatalf("unexpected move input %#v", stub.lastMove)
	}
}

// TestHandlerMoveCardSuccess verifies the move response.
func TestHandlerMoveCardSuccess(t *testing.T) {
	stub := &stubBoards{moveResult: app.MoveCardResult{Sent: true, Board: domain.Board{ID: "b1"}}}
	rec := do(t, NewHandler(stub), http.MethodPost, "/boards/b1/cards/card1/move", `{"list_id":"B","position":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeBody[struct {
		Sent bool `json:"sent"`
	}](t, rec)
	if !got.Sent {
		t.Fatal("expected sent=true")
	}
}

// TestHandlerInviteValidation verifies app validation maps to 400.
func TestHandlerInviteValidation(t *testing.T) {
	stub := &stubBoards{err: fmt.Errorf("%w: invalid email", app.ErrInvalidInput)}
	rec := do(t, NewHandler(stub), http.MethodPost, "/boards/b1/invite", `{"email":"nobody"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.lastInvite.Email != "nobody" || stub.lastInvite.BoardID != "b1" {
		t.Fatalf("unexpected invite input %#v", stub.lastInvite)
	}
}

// TestHandlerRoutingErrors verifies unknown routes and methods.
func TestHandlerRoutingErrors(t *testing.T) {
	h := NewHandler(&stubBoards{})
	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/boards/b1", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// TestHandlerWithoutService verifies a nil service fails closed.
func TestHandlerWithoutService(t *testing.T) {
	rec := do(t, NewHandler(nil), http.MethodGet, "/boards", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
