// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/boardwalk/internal/adapters/server/common"
	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, boards common.BoardService) (*Handler, error) {
	if boards == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, boards)
	registerCardTools(mcpSrv, boards)
	registerMemberTools(mcpSrv, boards)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "boardwalk"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers board index, board read, list, and recommendation tools.
func registerBoardTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"boardwalk.list_boards",
			mcp.WithDescription("List the boards visible to the configured user."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := boards.ListBoards(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if rows == nil {
				rows = []domain.BoardSummary{}
			}
			return jsonResult("list_boards", map[string]any{"boards": rows})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"boardwalk.get_board",
			mcp.WithDescription("Return one board with its lists and cards in order."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			board, err := boards.GetBoard(ctx, boardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_board", board)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"boardwalk.create_list",
			mcp.WithDescription("Append a list to a board."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithString("name", mcp.Required(), mcp.Description("List name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := boards.CreateList(ctx, app.CreateListInput{BoardID: boardID, Name: name}); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("create_list", map[string]any{"status": "created", "board_id": boardID, "name": name})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"boardwalk.recommendations",
			mcp.WithDescription("Return the server's alerts and suggestions for a board."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			recs, err := boards.Recommendations(ctx, boardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if recs == nil {
				recs = []domain.Recommendation{}
			}
			return jsonResult("recommendations", map[string]any{"recommendations": recs})
		},
	)
}

// registerCardTools registers card create, update, and move tools.
func registerCardTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"boardwalk.create_card",
			mcp.WithDescription("Add a card to the end of a list."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("priority", mcp.Description("Card priority"), mcp.Enum(priorityValues()...)),
			mcp.WithString("status", mcp.Description("Card status"), mcp.Enum(statusValues()...)),
			mcp.WithString("due_date", mcp.Description("YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			due, err := app.ParseDueInput(req.GetString("due_date", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			err = boards.CreateCard(ctx, app.CreateCardInput{
				BoardID:     boardID,
				ListID:      listID,
				Title:       title,
				Description: req.GetString("description", ""),
				Priority:    domain.Priority(req.GetString("priority", "")),
				Status:      domain.Status(req.GetString("status", "")),
				DueDate:     due,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("create_card", map[string]any{"status": "created", "list_id": listID, "title": title})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"boardwalk.update_card",
			mcp.WithDescription("Update a card. Omitted fields keep their current value."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board holding the card")),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New markdown description")),
			mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum(priorityValues()...)),
			mcp.WithString("status", mcp.Description("New status"), mcp.Enum(statusValues()...)),
			mcp.WithString("due_date", mcp.Description("New due date YYYY-MM-DD")),
			mcp.WithBoolean("clear_due", mcp.Description("Remove the due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			args := req.GetArguments()
			card, err := boards.EditCard(ctx, app.EditCardInput{
				BoardID:     boardID,
				CardID:      cardID,
				Title:       optionalString(args, "title"),
				Description: optionalString(args, "description"),
				Priority:    optionalString(args, "priority"),
				Status:      optionalString(args, "status"),
				Due:         optionalString(args, "due_date"),
				ClearDue:    req.GetBool("clear_due", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_card", card)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"boardwalk.move_card",
			mcp.WithDescription("Move a card to a list position. A rejected move returns the server's board."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("to_list_id", mcp.Required(), mcp.Description("Destination list identifier")),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("Destination position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toListID, err := req.RequireString("to_list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			position, err := req.RequireInt("position")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := boards.MoveCard(ctx, app.MoveCardInput{
				BoardID:  boardID,
				CardID:   cardID,
				ToListID: toListID,
				Position: position,
			})
			if err != nil {
				return moveFailureResult(err, res), nil
			}
			return jsonResult("move_card", map[string]any{"sent": res.Sent, "board": res.Board})
		},
	)
}

// registerMemberTools registers the invite tool.
func registerMemberTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"boardwalk.invite_member",
			mcp.WithDescription("Invite a user to a board by email."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithString("email", mcp.Required(), mcp.Description("Member email")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			email, err := req.RequireString("email")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := boards.InviteMember(ctx, app.InviteMemberInput{BoardID: boardID, Email: email}); err != nil {
				failure := common.Classify(err)
				if failure.Code == common.CodeUpstreamError || failure.Code == common.CodeInternalError {
					return mcp.NewToolResultError(failure.Code + ": " + app.ServerMessage(err, "Failed to invite member")), nil
				}
				return toolResultFromError(err), nil
			}
			return jsonResult("invite_member", map[string]any{"status": "invited", "email": email})
		},
	)
}

// jsonResult encodes payload as a structured tool result.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// moveFailureResult reports a failed move. When the board was reloaded its
// arrangement is appended so the caller sees what the server kept.
func moveFailureResult(err error, res app.MoveCardResult) *mcp.CallToolResult {
	result := toolResultFromError(err)
	if res.Board.ID == "" {
		return result
	}
	var b strings.Builder
	for _, list := range res.Board.Lists {
		ids := make([]string, 0, len(list.Cards))
		for _, c := range list.VisibleCards() {
			ids = append(ids, c.ID)
		}
		fmt.Fprintf(&b, "\n%s: [%s]", list.ID, strings.Join(ids, ", "))
	}
	result.Content = append(result.Content, mcp.NewTextContent("board "+res.Board.ID+" now:"+b.String()))
	return result
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	failure := common.Classify(err)
	return mcp.NewToolResultError(failure.Code + ": " + failure.Message)
}

// optionalString returns a pointer to args[key] when it is present as a string.
func optionalString(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func priorityValues() []string {
	out := []string{}
	for _, p := range domain.Priorities() {
		out = append(out, string(p))
	}
	return out
}

func statusValues() []string {
	out := []string{}
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}
