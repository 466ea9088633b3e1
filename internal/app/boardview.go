package app

import "github.com/evanschultz/boardwalk/internal/domain"

// BoardView is the working copy of one board that the UI renders from.
// While suppressed, fresh fetches are ignored so a drag target stays put.
// It is not safe for concurrent use; the owner's event loop serializes access.
type BoardView struct {
	board      domain.Board
	suppressed bool
}

// NewBoardView seeds the working copy from a fetched board.
func NewBoardView(board domain.Board) *BoardView {
	return &BoardView{board: board.Clone()}
}

// Board returns the working board.
func (v *BoardView) Board() domain.Board {
	return v.board
}

// Lists returns the working lists in display order.
func (v *BoardView) Lists() []domain.List {
	return v.board.Lists
}

// Suppressed reports whether a drag is holding off fetch syncs.
func (v *BoardView) Suppressed() bool {
	return v.suppressed
}

// SetSuppressed toggles the drag suppression flag.
func (v *BoardView) SetSuppressed(on bool) {
	v.suppressed = on
}

// Sync replaces the working copy with a fresh fetch unless suppressed.
// It reports whether the copy changed.
func (v *BoardView) Sync(board domain.Board) bool {
	if v.suppressed {
		return false
	}
	v.board = board.Clone()
	return true
}

// Replace overwrites the working copy and clears suppression.
func (v *BoardView) Replace(board domain.Board) {
	v.board = board.Clone()
	v.suppressed = false
}

// moveCard splices one card between lists in the working copy and returns
// the index it landed at. dstIndex is clamped to the destination bounds.
func (v *BoardView) moveCard(srcList, srcIndex, dstList, dstIndex int) int {
	card := v.board.Lists[srcList].Cards[srcIndex]
	src := v.board.Lists[srcList].Cards
	v.board.Lists[srcList].Cards = append(src[:srcIndex:srcIndex], src[srcIndex+1:]...)

	dst := v.board.Lists[dstList].Cards
	dstIndex = clampPosition(dstIndex, len(dst))
	out := make([]domain.Card, 0, len(dst)+1)
	out = append(out, dst[:dstIndex]...)
	out = append(out, card)
	out = append(out, dst[dstIndex:]...)
	v.board.Lists[dstList].Cards = out
	return dstIndex
}

// clampPosition bounds an insert index to [0, n].
func clampPosition(index, n int) int {
	return max(0, min(index, n))
}
