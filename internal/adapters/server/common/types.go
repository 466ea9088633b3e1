// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// BoardService is the app surface both transports expose. *app.Service satisfies it.
type BoardService interface {
	ListBoards(context.Context) ([]domain.BoardSummary, error)
	GetBoard(context.Context, string) (domain.Board, error)
	CreateBoard(context.Context, app.CreateBoardInput) error
	CreateList(context.Context, app.CreateListInput) error
	CreateCard(context.Context, app.CreateCardInput) error
	UpdateCard(context.Context, app.UpdateCardInput) error
	EditCard(context.Context, app.EditCardInput) (domain.Card, error)
	MoveCard(context.Context, app.MoveCardInput) (app.MoveCardResult, error)
	InviteMember(context.Context, app.InviteMemberInput) error
	Recommendations(context.Context, string) ([]domain.Recommendation, error)
}

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// Error codes shared by every transport.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeNotFound           = "not_found"
	CodeUpstreamError      = "upstream_error"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternalError      = "internal_error"
)

// Failure is one classified service error.
type Failure struct {
	Code       string
	StatusCode int
	Message    string
}

// Classify maps a service error onto a transport code, an HTTP status, and a
// user-facing message. Backend messages are preferred over wrapped error text.
func Classify(err error) Failure {
	switch {
	case err == nil:
		return Failure{Code: CodeInternalError, StatusCode: http.StatusInternalServerError, Message: "unknown error"}
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, app.ErrInvalidInput):
		return Failure{Code: CodeInvalidRequest, StatusCode: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrCardNotFound), errors.Is(err, app.ErrListNotFound):
		return Failure{Code: CodeNotFound, StatusCode: http.StatusNotFound, Message: app.ServerMessage(err, err.Error())}
	case errors.Is(err, app.ErrNotConfigured):
		return Failure{Code: CodeServiceUnavailable, StatusCode: http.StatusServiceUnavailable, Message: err.Error()}
	}
	var upstream interface{ ServerMessage() string }
	if errors.As(err, &upstream) {
		return Failure{Code: CodeUpstreamError, StatusCode: http.StatusBadGateway, Message: app.ServerMessage(err, err.Error())}
	}
	return Failure{Code: CodeInternalError, StatusCode: http.StatusInternalServerError, Message: err.Error()}
}
