package app

import (
	"context"
	"time"

	"github.com/evanschultz/boardwalk/internal/domain"
)

// BoardAPI is the backend the client reads boards from and writes changes to.
type BoardAPI interface {
	ListBoards(context.Context) ([]domain.BoardSummary, error)
	GetBoard(context.Context, string) (domain.Board, error)
	CreateBoard(context.Context, BoardDraft) error

	CreateList(context.Context, string, string) error

	CreateCard(context.Context, string, string, CardDraft) error
	UpdateCard(context.Context, string, CardPatch) error
	MoveCard(context.Context, MoveRequest) error

	InviteMember(context.Context, string, string) error
	ListRecommendations(context.Context, string) ([]domain.Recommendation, error)
}

// Logger is the structured logging surface the app layer writes to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// BoardDraft is the body of a create-board request.
type BoardDraft struct {
	Name        string
	Description string
}

// CardDraft is the body of a create-card request. A nil DueDate is sent as
// an empty string.
type CardDraft struct {
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.Status
	DueDate     *time.Time
}

// DueDateAction says what an update does to a card's due date.
type DueDateAction int

const (
	DueDateUnchanged DueDateAction = iota
	DueDateSet
	DueDateClear
)

// DueDateChange carries a due date edit. Date is only read for DueDateSet.
type DueDateChange struct {
	Action DueDateAction
	Date   time.Time
}

// SetDueDate returns a change that assigns due.
func SetDueDate(due time.Time) DueDateChange {
	return DueDateChange{Action: DueDateSet, Date: due}
}

// ClearDueDate returns a change that removes the due date.
func ClearDueDate() DueDateChange {
	return DueDateChange{Action: DueDateClear}
}

// DueDateFrom returns Set for a non-nil date and Clear otherwise.
func DueDateFrom(due *time.Time) DueDateChange {
	if due == nil {
		return ClearDueDate()
	}
	return SetDueDate(*due)
}

// CardPatch is the body of an update-card request.
type CardPatch struct {
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.Status
	DueDate     DueDateChange
}

// MoveRequest is the confirmation sent to the backend after a drop.
type MoveRequest struct {
	CardID    string `json:"cardId"`
	NewListID string `json:"newListId"`
	Position  int    `json:"position"`
}
