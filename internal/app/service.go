package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/boardwalk/internal/domain"
)

// Service validates form input and forwards it to the backend.
type Service struct {
	api BoardAPI
	log Logger
}

// NewService constructs a new value for this package.
func NewService(api BoardAPI, log Logger) *Service {
	if log == nil {
		log = nopLogger{}
	}
	return &Service{api: api, log: log}
}

// API exposes the backend the service forwards to.
func (s *Service) API() BoardAPI {
	return s.api
}

// Logger exposes the logger shared with controllers built from this service.
func (s *Service) Logger() Logger {
	return s.log
}

// ListBoards lists the boards visible to the current user.
func (s *Service) ListBoards(ctx context.Context) ([]domain.BoardSummary, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	boards, err := s.api.ListBoards(ctx)
	if err != nil {
		s.log.Error("list boards failed", "err", err)
		return nil, err
	}
	return boards, nil
}

// GetBoard fetches one board with its lists and cards.
func (s *Service) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return domain.Board{}, fmt.Errorf("%w: board id is required", ErrInvalidInput)
	}
	if s.api == nil {
		return domain.Board{}, ErrNotConfigured
	}
	board, err := s.api.GetBoard(ctx, boardID)
	if err != nil {
		s.log.Error("load board failed", "board", boardID, "err", err)
		return domain.Board{}, err
	}
	return board, nil
}

// OpenBoard fetches a board and binds a view and reorder controller to it.
func (s *Service) OpenBoard(ctx context.Context, boardID string) (*BoardView, *Reorderer, error) {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, nil, err
	}
	view := NewBoardView(board)
	return view, NewReorderer(view, s.api, board.ID, s.log), nil
}

// CreateBoardInput holds input values for create board operations.
type CreateBoardInput struct {
	Name        string
	Description string
}

// CreateBoard creates a board owned by the current user.
func (s *Service) CreateBoard(ctx context.Context, in CreateBoardInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: board name is required", ErrInvalidInput)
	}
	if s.api == nil {
		return ErrNotConfigured
	}
	if err := s.api.CreateBoard(ctx, BoardDraft{Name: name, Description: strings.TrimSpace(in.Description)}); err != nil {
		s.log.Error("create board failed", "name", name, "err", err)
		return err
	}
	s.log.Info("board created", "name", name)
	return nil
}

// CreateListInput holds input values for create list operations.
type CreateListInput struct {
	BoardID string
	Name    string
}

// CreateList appends a list to a board.
func (s *Service) CreateList(ctx context.Context, in CreateListInput) error {
	boardID := strings.TrimSpace(in.BoardID)
	name := strings.TrimSpace(in.Name)
	if boardID == "" {
		return fmt.Errorf("%w: board id is required", ErrInvalidInput)
	}
	if name == "" {
		return fmt.Errorf("%w: list name is required", ErrInvalidInput)
	}
	if s.api == nil {
		return ErrNotConfigured
	}
	if err := s.api.CreateList(ctx, boardID, name); err != nil {
		s.log.Error("create list failed", "board", boardID, "name", name, "err", err)
		return err
	}
	s.log.Info("list created", "board", boardID, "name", name)
	return nil
}

// CreateCardInput holds input values for create card operations.
type CreateCardInput struct {
	BoardID     string
	ListID      string
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.Status
	DueDate     *time.Time
}

// CreateCard adds a card to the end of a list. Priority defaults to Medium
// and status to Todo.
func (s *Service) CreateCard(ctx context.Context, in CreateCardInput) error {
	boardID := strings.TrimSpace(in.BoardID)
	listID := strings.TrimSpace(in.ListID)
	title := strings.TrimSpace(in.Title)
	if boardID == "" || listID == "" {
		return fmt.Errorf("%w: board and list ids are required", ErrInvalidInput)
	}
	if title == "" {
		return fmt.Errorf("%w: card title is required", ErrInvalidInput)
	}
	priority, err := domain.ParsePriority(string(in.Priority))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	status, err := domain.ParseStatus(string(in.Status))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if s.api == nil {
		return ErrNotConfigured
	}
	draft := CardDraft{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
	}
	if err := s.api.CreateCard(ctx, boardID, listID, draft); err != nil {
		s.log.Error("create card failed", "board", boardID, "list", listID, "err", err)
		return err
	}
	s.log.Info("card created", "board", boardID, "list", listID, "title", title)
	return nil
}

// UpdateCardInput holds input values for update card operations.
type UpdateCardInput struct {
	CardID      string
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.Status
	DueDate     DueDateChange
}

// UpdateCard replaces a card's editable fields.
func (s *Service) UpdateCard(ctx context.Context, in UpdateCardInput) error {
	cardID := strings.TrimSpace(in.CardID)
	title := strings.TrimSpace(in.Title)
	if cardID == "" {
		return fmt.Errorf("%w: card id is required", ErrInvalidInput)
	}
	if title == "" {
		return fmt.Errorf("%w: card title is required", ErrInvalidInput)
	}
	priority, err := domain.ParsePriority(string(in.Priority))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	status, err := domain.ParseStatus(string(in.Status))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if s.api == nil {
		return ErrNotConfigured
	}
	patch := CardPatch{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
	}
	if err := s.api.UpdateCard(ctx, cardID, patch); err != nil {
		s.log.Error("update card failed", "card", cardID, "err", err)
		return err
	}
	s.log.Info("card updated", "card", cardID)
	return nil
}

// InviteMemberInput holds input values for invite operations.
type InviteMemberInput struct {
	BoardID string
	Email   string
}

// InviteMember adds a user to a board by email.
func (s *Service) InviteMember(ctx context.Context, in InviteMemberInput) error {
	boardID := strings.TrimSpace(in.BoardID)
	email := strings.TrimSpace(in.Email)
	if boardID == "" {
		return fmt.Errorf("%w: board id is required", ErrInvalidInput)
	}
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidEmail)
	}
	if s.api == nil {
		return ErrNotConfigured
	}
	if err := s.api.InviteMember(ctx, boardID, email); err != nil {
		s.log.Error("invite member failed", "board", boardID, "email", email, "err", err)
		return err
	}
	s.log.Info("member invited", "board", boardID, "email", email)
	return nil
}

// Recommendations fetches the server's alerts and suggestions for a board.
func (s *Service) Recommendations(ctx context.Context, boardID string) ([]domain.Recommendation, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, fmt.Errorf("%w: board id is required", ErrInvalidInput)
	}
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	recs, err := s.api.ListRecommendations(ctx, boardID)
	if err != nil {
		s.log.Error("load recommendations failed", "board", boardID, "err", err)
		return nil, err
	}
	return recs, nil
}

// MoveCardInput addresses a card by id and a destination slot.
type MoveCardInput struct {
	BoardID  string
	CardID   string
	ToListID string
	Position int
}

// MoveCardResult reports what a one-shot move did.
type MoveCardResult struct {
	Sent  bool
	Board domain.Board
}

// MoveCard fetches the board, locates the card, and runs it through a
// reorder controller. The returned board is the working copy afterward,
// which after a failed confirmation is the server's arrangement.
func (s *Service) MoveCard(ctx context.Context, in MoveCardInput) (MoveCardResult, error) {
	cardID := strings.TrimSpace(in.CardID)
	toListID := strings.TrimSpace(in.ToListID)
	if cardID == "" || toListID == "" {
		return MoveCardResult{}, fmt.Errorf("%w: card id and destination list are required", ErrInvalidInput)
	}
	view, reorder, err := s.OpenBoard(ctx, in.BoardID)
	if err != nil {
		return MoveCardResult{}, err
	}
	board := view.Board()
	li, ci, ok := board.FindCard(cardID)
	if !ok {
		return MoveCardResult{Board: board}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if board.ListIndex(toListID) < 0 {
		return MoveCardResult{Board: board}, fmt.Errorf("%w: %s", ErrListNotFound, toListID)
	}
	sent, err := reorder.Move(ctx, DropResult{
		CardID:      cardID,
		Source:      DropLocation{ListID: board.Lists[li].ID, Index: ci},
		Destination: &DropLocation{ListID: toListID, Index: in.Position},
	})
	return MoveCardResult{Sent: sent, Board: view.Board()}, err
}
