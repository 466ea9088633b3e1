package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// stubBoards provides deterministic board responses for MCP tool tests.
type stubBoards struct {
	boards     []domain.BoardSummary
	board      domain.Board
	recs       []domain.Recommendation
	moveResult app.MoveCardResult
	err        error

	lastBoardID string
	lastCard    app.CreateCardInput
	lastEdit    app.EditCardInput
	lastMove    app.MoveCardInput
	lastList    app.CreateListInput
	lastInvite  app.InviteMemberInput
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

func (s *stubBoards) CreateBoard(context.Context, app.CreateBoardInput) error { return s.err }

func (s *stubBoards) CreateList(_ context.Context, in app.CreateListInput) error {
	s.lastList = in
	return s.err
}

func (s *stubBoards) CreateCard(_ context.Context, in app.CreateCardInput) error {
	s.lastCard = in
	return s.err
}

func (s *stubBoards) UpdateCard(context.Context, app.UpdateCardInput) error { return s.err }

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

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultTexts collects every text entry from one tool-call result payload.
func toolResultTexts(t *testing.T, result map[string]any) []string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	out := make([]string, 0, len(contentRaw))
	for _, raw := range contentRaw {
		entry, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("content entry has unexpected type: %#v", raw)
		}
		text, _ := entry["text"].(string)
		out = append(out, text)
	}
	return out
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "boardwalk-test",
				"version": "1.0.0",
			},
		},
	}
}

// startServer builds one handler over boards and initializes an MCP session.
func startServer(t *testing.T, boards *stubBoards) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, boards)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoards{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists every board tool.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := startServer(t, &stubBoards{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{
		"boardwalk.list_boards",
		"boardwalk.get_board",
		"boardwalk.create_card",
		"boardwalk.update_card",
		"boardwalk.move_card",
		"boardwalk.create_list",
		"boardwalk.invite_member",
		"boardwalk.recommendations",
	} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

// TestHandlerListBoardsToolCall verifies list_boards returns structured rows.
func TestHandlerListBoardsToolCall(t *testing.T) {
	stub := &stubBoards{boards: []domain.BoardSummary{{ID: "b1", Name: "Roadmap"}}}
	server := startServer(t, stub)
	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "boardwalk.list_boards", map[string]any{}))

	structured := toolResultStructured(t, callResp.Result)
	rows, ok := structured["boards"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("boards = %#v, want one row", structured["boards"])
	}
	row, _ := rows[0].(map[string]any)
	if row["name"] != "Roadmap" {
		t.Fatalf("row = %#v, want Roadmap", row)
	}
}

// TestHandlerGetBoardToolCall verifies get_board forwards the id and returns the board.
func TestHandlerGetBoardToolCall(t *testing.T) {
	stub := &stubBoards{board: domain.Board{ID: "b1", Name: "Roadmap", Lists: []domain.List{{ID: "A", Name: "Todo"}}}}
	server := startServer(t, stub)
	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "boardwalk.get_board", map[string]any{
		"board_id": "b1",
	}))

	structured := toolResultStructured(t, callResp.Result)
	if structured["name"] != "Roadmap" {
		t.Fatalf("structured = %#v, want board Roadmap", structured)
	}
	if stub.lastBoardID != "b1" {
		t.Fatalf("lastBoardID = %q, want b1", stub.lastBoardID)
	}
}

// TestHandlerCreateAndUpdateCardToolCalls verifies card arguments map onto service inputs.
func TestHandlerCreateAndUpdateCardToolCalls(t *testing.T) {
	stub := &stubBoards{}
	server := startServer(t, stub)

	_, createResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "boardwalk.create_card", map[string]any{
		"board_id": "b1",
		"list_id":  "A",
		"title":    "Ship",
		"priority": "High",
		"due_date": "2026-04-01",
	}))
	if isError, _ := createResp.Result["isError"].(bool); isError {
		t.Fatalf("create_card failed: %#v", createResp.Result)
	}
	if stub.lastCard.ListID != "A" || stub.lastCard.Priority != domain.PriorityHigh || domain.FormatDueDate(stub.lastCard.DueDate) != "2026-04-01" {
		t.Fatalf("lastCard = %#v", stub.lastCard)
	}

	_, editResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "boardwalk.update_card", map[string]any{
		"board_id":  "b1",
		"card_id":   "card1",
		"status":    "Done",
		"clear_due": true,
	}))
	if isError, _ := editResp.Result["isError"].(bool); isError {
		t.Fatalf("update_card failed: %#v", editResp.Result)
	}
	in := stub.lastEdit
	if in.Title != nil || in.Status == nil || *in.Status != "Done" || !in.ClearDue {
		t.Fatalf("lastEdit = %#v, want only status and clear_due", in)
	}
}

// TestHandlerMoveCardFailureReportsBoard verifies a rejected move returns the server arrangement.
func TestHandlerMoveCardFailureReportsBoard(t *testing.T) {
	stub := &stubBoards{
		err: fmt.Errorf("move card card1: %w", backendErr{msg: "Position out of range"}),
		moveResult: app.MoveCardResult{Sent: true, Board: domain.Board{
			ID: "b1",
			Lists: []domain.List{
				{ID: "A", Cards: []domain.Card{{ID: "card1", Title: "Write docs"}}},
				{ID: "B"},
			},
		}},
	}
	server := startServer(t, stub)
	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "boardwalk.move_card", map[string]any{
		"board_id":   "b1",
		"card_id":    "card1",
		"to_list_id": "B",
		"position":   7,
	}))
	if isError, _ := callResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", callResp.Result["isError"])
	}
	texts := toolResultTexts(t, callResp.Result)
	if texts[0] != "upstream_error: Position out of range" {
		t.Fatalf("text[0] = %q", texts[0])
	}
	if len(texts) < 2 || !strings.Contains(texts[1], "A: [card1]") || !strings.Contains(texts[1], "B: []") {
		t.Fatalf("reconciled board missing from %#v", texts)
	}
	if stub.lastMove.Position != 7 || stub.lastMove.ToListID != "B" {
		t.Fatalf("lastMove = %#v", stub.lastMove)
	}
}

// TestHandlerToolCallErrorPaths verifies argument and service errors surface as tool errors.
func TestHandlerToolCallErrorPaths(t *testing.T) {
	stub := &stubBoards{}
	server := startServer(t, stub)

	_, missingArgResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "boardwalk.get_board", map[string]any{}))
	if isError, _ := missingArgResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", missingArgResp.Result["isError"])
	}

	stub.err = fmt.Errorf("load: %w", app.ErrNotFound)
	_, mappedErrResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "boardwalk.get_board", map[string]any{
		"board_id": "missing",
	}))
	if isError, _ := mappedErrResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", mappedErrResp.Result["isError"])
	}
	if got := toolResultTexts(t, mappedErrResp.Result)[0]; !strings.HasPrefix(got, "not_found:") {
		t.Fatalf("text = %q, want not_found prefix", got)
	}

	stub.err = errors.New("socket closed")
	_, inviteResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "boardwalk.invite_member", map[string]any{
		"board_id": "b1",
		"email":    "sam@example.com",
	}))
	if got := toolResultTexts(t, inviteResp.Result)[0]; got != "internal_error: Failed to invite member" {
		t.Fatalf("text = %q, want invite fallback", got)
	}

	stub.err = fmt.Errorf("invite member: %w", backendErr{})
	_, blankResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "boardwalk.invite_member", map[string]any{
		"board_id": "b1",
		"email":    "sam@example.com",
	}))
	if got := toolResultTexts(t, blankResp.Result)[0]; got != "upstream_error: Failed to invite member" {
		t.Fatalf("text = %q, want upstream invite fallback", got)
	}
}

// TestNewHandlerRequiresBoards verifies constructor validation.
func TestNewHandlerRequiresBoards(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("NewHandler() error = nil, want error")
	}
}

// TestNormalizeConfig verifies defaults and endpoint cleanup.
func TestNormalizeConfig(t *testing.T) {
	got := normalizeConfig(Config{EndpointPath: " tools/mcp/ "})
	want := Config{ServerName: "boardwalk", ServerVersion: "dev", EndpointPath: "/tools/mcp"}
	if got != want {
		t.Fatalf("normalizeConfig() = %#v, want %#v", got, want)
	}
}

// TestHandlerServeHTTPUnavailable verifies nil handlers fail closed.
func TestHandlerServeHTTPUnavailable(t *testing.T) {
	var h *Handler
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
