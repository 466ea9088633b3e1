// Package restapi implements app.BoardAPI against the board backend's JSON API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
	"github.com/google/uuid"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Config holds configuration for creating a Client.
type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds each request. Zero means no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     app.Logger
	// RequestID generates the X-Request-ID header. Defaults to uuid v4.
	RequestID func() string
}

// Client talks to the board backend over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        app.Logger
	requestID  func() string
}

var _ app.BoardAPI = (*Client)(nil)

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("restapi: base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("restapi: invalid base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("restapi: base url %q must be http or https", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = discardLogger{}
	}
	requestID := cfg.RequestID
	if requestID == nil {
		requestID = uuid.NewString
	}
	return &Client{
		baseURL:    strings.TrimRight(raw, "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		log:        log,
		requestID:  requestID,
	}, nil
}

// ListBoards fetches GET /boards.
func (c *Client) ListBoards(ctx context.Context) ([]domain.BoardSummary, error) {
	var env boardsEnvelope
	if err := c.do(ctx, http.MethodGet, "/boards", nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.BoardSummary, 0, len(env.Boards))
	for _, b := range env.Boards {
		out = append(out, b.toDomain().Summary())
	}
	return out, nil
}

// GetBoard fetches GET /boards/{id}.
func (c *Client) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var env boardEnvelope
	if err := c.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(boardID), nil, &env); err != nil {
		return domain.Board{}, err
	}
	return env.Board.toDomain(), nil
}

// CreateBoard posts POST /boards.
func (c *Client) CreateBoard(ctx context.Context, in app.BoardDraft) error {
	body := map[string]string{"name": in.Name, "description": in.Description}
	return c.do(ctx, http.MethodPost, "/boards", body, nil)
}

// CreateList posts POST /boards/{id}/lists.
func (c *Client) CreateList(ctx context.Context, boardID, name string) error {
	path := "/boards/" + url.PathEscape(boardID) + "/lists"
	return c.do(ctx, http.MethodPost, path, map[string]string{"name": name}, nil)
}

// CreateCard posts POST /boards/{id}/lists/{listId}/cards.
func (c *Client) CreateCard(ctx context.Context, boardID, listID string, in app.CardDraft) error {
	path := "/boards/" + url.PathEscape(boardID) + "/lists/" + url.PathEscape(listID) + "/cards"
	body := createCardBody{
		Title:       in.Title,
		Description: in.Description,
		Priority:    string(in.Priority),
		Status:      string(in.Status),
		DueDate:     domain.FormatDueDate(in.DueDate),
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// UpdateCard patches PATCH /boards/cards/{cardId}.
func (c *Client) UpdateCard(ctx context.Context, cardID string, in app.CardPatch) error {
	body := updateCardBody{
		Title:       in.Title,
		Description: in.Description,
		Priority:    string(in.Priority),
		Status:      string(in.Status),
		DueDate:     in.DueDate,
	}
	return c.do(ctx, http.MethodPatch, "/boards/cards/"+url.PathEscape(cardID), body, nil)
}

// MoveCard patches PATCH /boards/cards/{cardId}/move.
func (c *Client) MoveCard(ctx context.Context, req app.MoveRequest) error {
	path := "/boards/cards/" + url.PathEscape(req.CardID) + "/move"
	return c.do(ctx, http.MethodPatch, path, moveCardBody{NewListID: req.NewListID, Position: req.Position}, nil)
}

// InviteMember posts POST /boards/{id}/invite.
func (c *Client) InviteMember(ctx context.Context, boardID, email string) error {
	path := "/boards/" + url.PathEscape(boardID) + "/invite"
	return c.do(ctx, http.MethodPost, path, map[string]string{"email": email}, nil)
}

// ListRecommendations fetches GET /boards/{id}/recommendations.
func (c *Client) ListRecommendations(ctx context.Context, boardID string) ([]domain.Recommendation, error) {
	var env recommendationsEnvelope
	path := "/boards/" + url.PathEscape(boardID) + "/recommendations"
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Recommendation, 0, len(env.Recommendations))
	for _, r := range env.Recommendations {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// do sends one JSON request and decodes a 2xx body into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("restapi: encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("restapi: build %s %s: %w", method, path, err)
	}
	reqID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("restapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("restapi: read %s %s response: %w", method, path, err)
	}
	c.log.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, path, resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("restapi: decode %s %s response: %w", method, path, err)
	}
	return nil
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
