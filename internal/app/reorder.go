package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanschultz/boardwalk/internal/domain"
)

// DragState is the reorder controller state.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// String returns the state name used in logs.
func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// DropLocation addresses one slot in one list.
type DropLocation struct {
	ListID string
	Index  int
}

// DropResult describes a finished drag. A nil Destination means the drag was
// cancelled or released outside any list.
type DropResult struct {
	CardID      string
	Source      DropLocation
	Destination *DropLocation
}

// Reorderer applies drops to a BoardView optimistically and reconciles with
// the backend when the confirmation fails.
type Reorderer struct {
	view    *BoardView
	api     BoardAPI
	boardID string
	state   DragState
	log     Logger
}

// NewReorderer binds a controller to one board's view.
func NewReorderer(view *BoardView, api BoardAPI, boardID string, log Logger) *Reorderer {
	if log == nil {
		log = nopLogger{}
	}
	return &Reorderer{view: view, api: api, boardID: boardID, log: log}
}

// State returns the current drag state.
func (r *Reorderer) State() DragState {
	return r.state
}

// BeginDrag enters Dragging and suppresses fetch syncs. It is a no-op while
// already dragging.
func (r *Reorderer) BeginDrag() {
	if r.state == DragDragging {
		return
	}
	r.state = DragDragging
	r.view.SetSuppressed(true)
}

// Drop ends the drag and applies the move to the working copy. It returns
// the confirmation to send and true when the view was mutated. The request
// carries the position the card landed at after clamping.
func (r *Reorderer) Drop(res DropResult) (MoveRequest, bool) {
	r.state = DragIdle
	r.view.SetSuppressed(false)

	if res.Destination == nil {
		return MoveRequest{}, false
	}
	dst := *res.Destination
	if dst.ListID == res.Source.ListID && dst.Index == res.Source.Index {
		return MoveRequest{}, false
	}

	board := r.view.Board()
	srcList := board.ListIndex(res.Source.ListID)
	dstList := board.ListIndex(dst.ListID)
	if srcList < 0 || dstList < 0 {
		r.log.Warn("drop ignored: list not found", "source_list", res.Source.ListID, "destination_list", dst.ListID)
		return MoveRequest{}, false
	}
	cards := board.Lists[srcList].Cards
	if res.Source.Index < 0 || res.Source.Index >= len(cards) {
		r.log.Warn("drop ignored: source index out of range", "list", res.Source.ListID, "index", res.Source.Index)
		return MoveRequest{}, false
	}
	cardID := cards[res.Source.Index].ID
	if res.CardID != "" && res.CardID != cardID {
		r.log.Warn("drop ignored: card not at source index", "card", res.CardID, "found", cardID)
		return MoveRequest{}, false
	}
	if srcList == dstList && clampPosition(dst.Index, len(cards)-1) == res.Source.Index {
		return MoveRequest{}, false
	}

	pos := r.view.moveCard(srcList, res.Source.Index, dstList, dst.Index)
	return MoveRequest{CardID: cardID, NewListID: dst.ListID, Position: pos}, true
}

// MoveOutcome is the backend answer to a dropped card. Board is only set
// when the move was rejected and the reload succeeded.
type MoveOutcome struct {
	Request  MoveRequest
	MoveErr  error
	Board    *domain.Board
	FetchErr error
}

// Settle talks to the backend for req without touching the view, so it can
// run off the UI goroutine. Pair it with Apply.
func (r *Reorderer) Settle(ctx context.Context, req MoveRequest) MoveOutcome {
	out := MoveOutcome{Request: req}
	if r.api == nil {
		out.MoveErr = ErrNotConfigured
		return out
	}
	if out.MoveErr = r.api.MoveCard(ctx, req); out.MoveErr == nil {
		r.log.Debug("card move confirmed", "card", req.CardID, "list", req.NewListID, "position", req.Position)
		return out
	}
	r.log.Error("card move failed, reloading board", "card", req.CardID, "err", out.MoveErr)

	board, err := r.api.GetBoard(ctx, r.boardID)
	if err != nil {
		r.log.Error("board reload after failed move failed", "board", r.boardID, "err", err)
		out.FetchErr = err
		return out
	}
	out.Board = &board
	return out
}

// Apply folds a settled move into the view. A rejected move discards the
// optimistic state in favour of the reloaded board; when the reload also
// failed the optimistic copy stays and both errors are returned.
func (r *Reorderer) Apply(out MoveOutcome) error {
	if out.MoveErr == nil {
		return nil
	}
	moveErr := fmt.Errorf("move card %s: %w", out.Request.CardID, out.MoveErr)
	if out.Board == nil {
		r.view.SetSuppressed(false)
		if out.FetchErr == nil {
			return moveErr
		}
		return errors.Join(moveErr, fmt.Errorf("reload board %s: %w", r.boardID, out.FetchErr))
	}
	r.view.Replace(*out.Board)
	return moveErr
}

// Confirm sends the move to the backend. On failure the optimistic state is
// discarded and replaced by a fresh fetch of the board.
func (r *Reorderer) Confirm(ctx context.Context, req MoveRequest) error {
	return r.Apply(r.Settle(ctx, req))
}

// Move runs one complete drag synchronously: begin, drop, confirm. The
// returned bool reports whether a confirmation was sent.
func (r *Reorderer) Move(ctx context.Context, res DropResult) (bool, error) {
	r.BeginDrag()
	req, ok := r.Drop(res)
	if !ok {
		return false, nil
	}
	return true, r.Confirm(ctx, req)
}
