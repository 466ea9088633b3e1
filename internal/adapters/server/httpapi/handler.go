// Package httpapi provides the local JSON HTTP adapter over the board service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evanschultz/boardwalk/internal/adapters/server/common"
	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	boards common.BoardService
	router *mux.Router
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type boardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type listRequest struct {
	Name string `json:"name"`
}

type cardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

type editRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
	ClearDue    bool    `json:"clear_due"`
}

type moveRequest struct {
	ListID   string `json:"list_id"`
	Position int    `json:"position"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

// NewHandler constructs one HTTP API adapter over boards.
func NewHandler(boards common.BoardService) *Handler {
	h := &Handler{boards: boards, router: mux.NewRouter()}
	r := h.router
	r.HandleFunc("/boards", h.handleListBoards).Methods(http.MethodGet)
	r.HandleFunc("/boards", h.handleCreateBoard).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardID}", h.handleGetBoard).Methods(http.MethodGet)
	r.HandleFunc("/boards/{boardID}/lists", h.handleCreateList).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardID}/lists/{listID}/cards", h.handleCreateCard).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardID}/cards/{cardID}", h.handleEditCard).Methods(http.MethodPatch)
	r.HandleFunc("/boards/{boardID}/cards/{cardID}/move", h.handleMoveCard).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardID}/invite", h.handleInvite).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardID}/recommendations", h.handleRecommendations).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{Code: common.CodeNotFound, Message: "endpoint not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, APIError{Code: "method_not_allowed", Message: "method not allowed"})
	})
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.boards == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    common.CodeServiceUnavailable,
			Message: "board service is not configured",
		})
		return
	}
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}
	h.router.ServeHTTP(w, r)
}

// handleListBoards serves GET `/boards`.
func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.ListBoards(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if boards == nil {
		boards = []domain.BoardSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": boards})
}

// handleCreateBoard serves POST `/boards`.
func (h *Handler) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req boardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.boards.CreateBoard(r.Context(), app.CreateBoardInput{Name: req.Name, Description: req.Description}); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "created"})
}

// handleGetBoard serves GET `/boards/{boardID}`.
func (h *Handler) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.boards.GetBoard(r.Context(), mux.Vars(r)["boardID"])
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": board})
}

// handleCreateList serves POST `/boards/{boardID}/lists`.
func (h *Handler) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in := app.CreateListInput{BoardID: mux.Vars(r)["boardID"], Name: req.Name}
	if err := h.boards.CreateList(r.Context(), in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "created"})
}

// handleCreateCard serves POST `/boards/{boardID}/lists/{listID}/cards`.
func (h *Handler) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	due, err := app.ParseDueInput(req.DueDate)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	vars := mux.Vars(r)
	in := app.CreateCardInput{
		BoardID:     vars["boardID"],
		ListID:      vars["listID"],
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		Status:      domain.Status(req.Status),
		DueDate:     due,
	}
	if err := h.boards.CreateCard(r.Context(), in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "created"})
}

// handleEditCard serves PATCH `/boards/{boardID}/cards/{cardID}`.
func (h *Handler) handleEditCard(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	vars := mux.Vars(r)
	card, err := h.boards.EditCard(r.Context(), app.EditCardInput{
		BoardID:     vars["boardID"],
		CardID:      vars["cardID"],
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Due:         req.DueDate,
		ClearDue:    req.ClearDue,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

// handleMoveCard serves POST `/boards/{boardID}/cards/{cardID}/move`. A
// rejected move reports the reconciled board in the error context.
func (h *Handler) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	vars := mux.Vars(r)
	res, err := h.boards.MoveCard(r.Context(), app.MoveCardInput{
		BoardID:  vars["boardID"],
		CardID:   vars["cardID"],
		ToListID: req.ListID,
		Position: req.Position,
	})
	if err != nil {
		failure := common.Classify(err)
		apiErr := APIError{Code: failure.Code, Message: failure.Message}
		if res.Board.ID != "" {
			apiErr.Context = map[string]any{"board": res.Board}
		}
		writeJSONError(w, failure.StatusCode, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": res.Sent, "board": res.Board})
}

// handleInvite serves POST `/boards/{boardID}/invite`.
func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in := app.InviteMemberInput{BoardID: mux.Vars(r)["boardID"], Email: req.Email}
	if err := h.boards.InviteMember(r.Context(), in); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "invited"})
}

// handleRecommendations serves GET `/boards/{boardID}/recommendations`.
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.boards.Recommendations(r.Context(), mux.Vars(r)["boardID"])
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// writeErrorFrom maps service errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	failure := common.Classify(err)
	writeJSONError(w, failure.StatusCode, APIError{Code: failure.Code, Message: failure.Message})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// One JSON value per body.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
