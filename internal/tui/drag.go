package tui

import (
	"context"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// dragSession tracks a held card. Indexes are positions among visible cards;
// target.Index is the final position once the held card leaves its source.
type dragSession struct {
	cardID string
	title  string
	source app.DropLocation
	target app.DropLocation
	mouse  bool
}

// beginKeyboardDrag grabs the focused card.
func (m Model) beginKeyboardDrag() (tea.Model, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		m.status = "no card to grab"
		return m, nil
	}
	list, _ := m.currentList()
	m.startDrag(list.ID, card, m.selectedCard, false)
	return m, nil
}

func (m *Model) startDrag(listID string, card domain.Card, index int, mouse bool) {
	loc := app.DropLocation{ListID: listID, Index: index}
	m.drag = &dragSession{cardID: card.ID, title: card.Title, source: loc, target: loc, mouse: mouse}
	m.reorder.BeginDrag()
	m.status = "dragging " + truncate(card.Title, 32)
}

// handleDragKey moves the drop target while a card is held.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancelDrag):
		return m.finishDrag(nil)
	case key.Matches(msg, m.keys.drop):
		target := m.drag.target
		return m.finishDrag(&target)
	case key.Matches(msg, m.keys.moveLeft):
		m.shiftDragTarget(-1, 0)
	case key.Matches(msg, m.keys.moveRight):
		m.shiftDragTarget(1, 0)
	case key.Matches(msg, m.keys.moveUp):
		m.shiftDragTarget(0, -1)
	case key.Matches(msg, m.keys.moveDown):
		m.shiftDragTarget(0, 1)
	}
	return m, nil
}

func (m *Model) shiftDragTarget(dList, dIndex int) {
	lists := m.view.Lists()
	if len(lists) == 0 {
		return
	}
	li := clamp(m.listIndex(m.drag.target.ListID)+dList, 0, len(lists)-1)
	m.setDragTarget(li, m.drag.target.Index+dIndex)
}

// setDragTarget points the drop marker at list li, row index, and follows it with focus.
func (m *Model) setDragTarget(li, index int) {
	list := m.view.Lists()[li]
	index = clamp(index, 0, m.dropSlots(list))
	m.drag.target = app.DropLocation{ListID: list.ID, Index: index}
	m.selectedList = li
	m.selectedCard = index
	m.ensureListVisible()
}

// dropSlots is the highest drop position in list for the held card.
func (m Model) dropSlots(list domain.List) int {
	n := len(list.VisibleCards())
	if m.drag != nil && list.CardIndex(m.drag.cardID) >= 0 {
		n--
	}
	return max(0, n)
}

// finishDrag drops the held card at target, or cancels when target is nil.
// The working copy changes here; the confirmation runs as a command.
func (m Model) finishDrag(target *app.DropLocation) (tea.Model, tea.Cmd) {
	d := m.drag
	m.drag = nil
	if d == nil || m.reorder == nil {
		return m, nil
	}
	board := m.view.Board()
	res := app.DropResult{CardID: d.cardID, Source: app.DropLocation{ListID: d.source.ListID, Index: -1}}
	if li, ci, ok := board.FindCard(d.cardID); ok {
		res.Source = app.DropLocation{ListID: board.Lists[li].ID, Index: ci}
	}
	if target != nil {
		if li := board.ListIndex(target.ListID); li >= 0 {
			res.Destination = &app.DropLocation{
				ListID: target.ListID,
				Index:  dropIndex(board.Lists[li], d.cardID, target.Index),
			}
		}
	}

	req, ok := m.reorder.Drop(res)
	if !ok {
		switch {
		case target == nil:
			m.status = "drag cancelled"
		case *target == d.source:
			m.status = "ready"
		default:
			m.status = "card not moved"
		}
		if li := m.listIndex(d.source.ListID); li >= 0 {
			m.selectedList = li
			m.selectedCard = d.source.Index
		}
		m.clampSelection()
		return m, nil
	}

	m.selectedList = m.listIndex(target.ListID)
	m.selectedCard = target.Index
	m.clampSelection()
	m.status = "moving " + truncate(d.title, 32)
	reorder := m.reorder
	return m, func() tea.Msg {
		return moveSettledMsg{reorder: reorder, outcome: reorder.Settle(context.Background(), req)}
	}
}

// dropIndex converts a visible drop position into an index in the raw
// destination slice after the held card is removed from it.
func dropIndex(list domain.List, cardID string, visible int) int {
	raw := make([]domain.Card, 0, len(list.Cards))
	for _, c := range list.Cards {
		if c.ID != cardID {
			raw = append(raw, c)
		}
	}
	seen := 0
	for i, c := range raw {
		if !c.Valid() {
			continue
		}
		if seen == visible {
			return i
		}
		seen++
	}
	return len(raw)
}

func (m Model) listIndex(listID string) int {
	if m.view == nil {
		return -1
	}
	return m.view.Board().ListIndex(listID)
}

// hit is a board cell resolved to a list and a card row.
type hit struct {
	list int
	row  int
}

// hitTest maps screen coordinates to a list and row. Rows above the first
// card resolve to row 0.
func (m Model) hitTest(x, y int) (hit, bool) {
	if m.view == nil {
		return hit{}, false
	}
	lists := m.view.Lists()
	span := m.columnSpan()
	if x < 0 || span <= 0 {
		return hit{}, false
	}
	li := x/span + m.listOffset
	if li >= len(lists) || li >= m.listOffset+m.visibleListCount() {
		return hit{}, false
	}
	relY := y - m.boardTop()
	if relY < 0 || relY >= m.columnHeight() {
		return hit{}, false
	}
	row := max(0, relY-columnHeaderRows) / m.cardSpan()
	return hit{list: li, row: row + m.cardOffset(li)}, true
}

// handleMouseClick focuses the card under the pointer and starts a mouse drag on it.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.mode != modeNone {
		return m, nil
	}
	if m.page == pagePicker {
		return m.handlePickerClick(msg.Y)
	}
	if m.view == nil || m.boardErr != nil || m.drag != nil {
		return m, nil
	}
	h, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedList = h.list
	list := m.view.Lists()[h.list]
	cards := list.VisibleCards()
	if h.row >= len(cards) {
		m.selectedCard = len(cards) - 1
		m.clampSelection()
		return m, nil
	}
	m.selectedCard = h.row
	m.clampSelection()
	m.startDrag(list.ID, cards[h.row], h.row, true)
	return m, nil
}

// handleMouseMotion follows the pointer with the drop marker.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.drag == nil || !m.drag.mouse {
		return m, nil
	}
	if h, ok := m.hitTest(msg.X, msg.Y); ok {
		m.setDragTarget(h.list, h.row)
	}
	return m, nil
}

// handleMouseRelease drops on the list under the pointer. Releasing outside every list cancels.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.drag == nil || !m.drag.mouse {
		return m, nil
	}
	h, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m.finishDrag(nil)
	}
	m.setDragTarget(h.list, h.row)
	target := m.drag.target
	return m.finishDrag(&target)
}

func (m Model) handlePickerClick(y int) (tea.Model, tea.Cmd) {
	rel := y - m.pickerTop()
	if rel < 0 || len(m.boards) == 0 {
		return m, nil
	}
	idx := rel / pickerRowSpan
	if idx >= len(m.boards) {
		return m, nil
	}
	if idx == m.selectedBoard {
		return m, m.openBoard(m.boards[idx].ID)
	}
	m.selectedBoard = idx
	return m, nil
}

// handleMouseWheel scrolls the focused selection.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	step := 0
	switch msg.Button {
	case tea.MouseWheelUp:
		step = -1
	case tea.MouseWheelDown:
		step = 1
	default:
		return m, nil
	}
	switch {
	case m.mode == modeRecommendations:
		m.recsOffset = clamp(m.recsOffset+step, 0, len(m.recs)-1)
	case m.mode != modeNone:
	case m.page == pagePicker:
		m.selectedBoard = clamp(m.selectedBoard+step, 0, len(m.boards)-1)
	case m.drag != nil:
		m.shiftDragTarget(0, step)
	default:
		m.selectedCard += step
		m.clampSelection()
	}
	return m, nil
}
