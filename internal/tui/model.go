package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// Service is the application surface the TUI drives. *app.Service satisfies it.
type Service interface {
	ListBoards(context.Context) ([]domain.BoardSummary, error)
	GetBoard(context.Context, string) (domain.Board, error)
	OpenBoard(context.Context, string) (*app.BoardView, *app.Reorderer, error)
	CreateBoard(context.Context, app.CreateBoardInput) error
	CreateList(context.Context, app.CreateListInput) error
	CreateCard(context.Context, app.CreateCardInput) error
	UpdateCard(context.Context, app.UpdateCardInput) error
	InviteMember(context.Context, app.InviteMemberInput) error
	Recommendations(context.Context, string) ([]domain.Recommendation, error)
}

// page is the routed screen.
type page int

const (
	pagePicker page = iota
	pageBoard
)

// inputMode is the active overlay, if any.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddBoard
	modeAddList
	modeAddCard
	modeEditCard
	modeInvite
	modeCardInfo
	modeRecommendations
	modeAlert
	modeConfirmQuit
)

// Model is the Bubble Tea model for the board picker and board pages.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error
	status string

	help help.Model
	keys keyMap

	page page
	mode inputMode

	boards         []domain.BoardSummary
	selectedBoard  int
	pendingBoardID string

	boardID      string
	view         *app.BoardView
	reorder      *app.Reorderer
	boardErr     error
	selectedList int
	selectedCard int
	listOffset   int
	drag         *dragSession

	formInputs    []textinput.Model
	formFocus     int
	formErr       string
	priorityIdx   int
	statusIdx     int
	editingCardID string
	formListID    string

	recs        []domain.Recommendation
	recsBoardID string
	recsLoading bool
	recsOffset  int

	infoCardID string
	alert      string
	alertBack  inputMode

	cardFields  CardFieldConfig
	dueSoon     time.Duration
	confirmQuit bool
	greeting    string
	copyText    func(string) error
	now         func() time.Time
	markdown    *markdownRenderer
}

type boardsLoadedMsg struct {
	boards []domain.BoardSummary
	err    error
}

type boardOpenedMsg struct {
	boardID string
	view    *app.BoardView
	reorder *app.Reorderer
	err     error
}

type boardFetchedMsg struct {
	boardID string
	board   domain.Board
	err     error
}

// moveSettledMsg carries the backend answer for a drop. Apply runs in Update.
type moveSettledMsg struct {
	reorder *app.Reorderer
	outcome app.MoveOutcome
}

type recommendationsMsg struct {
	boardID string
	recs    []domain.Recommendation
	err     error
}

// actionMsg is the result of a form submission.
type actionMsg struct {
	mode         inputMode
	err          error
	status       string
	reloadBoards bool
	reloadBoard  bool
}

type copiedMsg struct {
	cardID string
	err    error
}

// NewModel constructs the TUI model.
func NewModel(svc Service, opts ...Option) Model {
	m := Model{
		svc:        svc,
		status:     "loading",
		help:       help.New(),
		keys:       newKeyMap(),
		cardFields: DefaultCardFieldConfig(),
		dueSoon:    48 * time.Hour,
		copyText:   systemClipboard,
		now:        time.Now,
		markdown:   &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the board index.
func (m Model) Init() tea.Cmd {
	return m.loadBoards
}

// Update handles messages and key input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(msg.Width)
		m.ensureListVisible()
		return m, nil

	case boardsLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.err = msg.err
			m.status = "error"
			return m, nil
		}
		m.err = nil
		m.boards = msg.boards
		m.selectedBoard = clamp(m.selectedBoard, 0, len(m.boards)-1)
		m.status = "ready"
		if boardID := m.pendingBoardID; boardID != "" {
			m.pendingBoardID = ""
			return m, m.openBoard(boardID)
		}
		return m, nil

	case boardOpenedMsg:
		if m.page != pageBoard || msg.boardID != m.boardID {
			return m, nil
		}
		if msg.err != nil {
			m.boardErr = msg.err
			m.status = "board load failed"
			return m, nil
		}
		m.view = msg.view
		m.reorder = msg.reorder
		m.selectedList, m.selectedCard, m.listOffset = 0, 0, 0
		m.clampSelection()
		m.status = "ready"
		return m, nil

	case boardFetchedMsg:
		if m.view == nil || msg.boardID != m.boardID {
			return m, nil
		}
		if msg.err != nil {
			m.status = "reload failed: " + errorText(msg.err)
			return m, nil
		}
		if !m.view.Sync(msg.board) {
			m.status = "reload skipped while dragging"
			return m, nil
		}
		m.clampSelection()
		if m.status == "reloading" {
			m.status = "reloaded"
		}
		return m, nil

	case moveSettledMsg:
		if m.reorder == nil || msg.reorder != m.reorder {
			return m, nil
		}
		if err := m.reorder.Apply(msg.outcome); err != nil {
			m.status = "move failed: " + errorText(err)
		} else {
			m.status = "moved"
		}
		m.clampSelection()
		return m, nil

	case recommendationsMsg:
		if msg.boardID != m.boardID {
			return m, nil
		}
		m.recsLoading = false
		if msg.err != nil {
			m.recs = nil
			m.recsBoardID = ""
			m.status = "recommendations unavailable"
			return m, nil
		}
		m.recs = msg.recs
		m.recsBoardID = msg.boardID
		m.status = "recommendations loaded"
		return m, nil

	case actionMsg:
		return m.applyAction(msg)

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied card id " + msg.cardID
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		if m.page == pageBoard {
			return m.handleBoardKey(msg)
		}
		return m.handlePickerKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		if m.isFormMode() && len(m.formInputs) > 0 {
			var cmd tea.Cmd
			m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// applyAction folds a form submission result into the model.
func (m Model) applyAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.mode == modeInvite && !errors.Is(msg.err, app.ErrInvalidInput) {
			m.alertBack = m.mode
			m.mode = modeAlert
			m.alert = app.ServerMessage(msg.err, "Failed to invite member")
			m.status = "invite failed"
			return m, nil
		}
		if m.mode == msg.mode {
			m.formErr = errorText(msg.err)
		}
		m.status = "error"
		return m, nil
	}
	if m.mode == msg.mode {
		m.closeForm()
	}
	m.status = msg.status
	switch {
	case msg.reloadBoards:
		return m, m.loadBoards
	case msg.reloadBoard && m.page == pageBoard && m.boardID != "":
		return m, m.fetchBoard(m.boardID)
	}
	return m, nil
}

func (m Model) loadBoards() tea.Msg {
	boards, err := m.svc.ListBoards(context.Background())
	return boardsLoadedMsg{boards: boards, err: err}
}

// fetchBoard re-reads a board. The result goes through BoardView.Sync.
func (m Model) fetchBoard(boardID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		board, err := svc.GetBoard(context.Background(), boardID)
		return boardFetchedMsg{boardID: boardID, board: board, err: err}
	}
}

// openBoard routes to the board page and starts the initial fetch.
func (m *Model) openBoard(boardID string) tea.Cmd {
	m.page = pageBoard
	m.mode = modeNone
	m.boardID = boardID
	m.view = nil
	m.reorder = nil
	m.boardErr = nil
	m.drag = nil
	m.recs = nil
	m.recsBoardID = ""
	m.recsLoading = false
	m.status = "loading board"
	svc := m.svc
	return func() tea.Msg {
		view, reorder, err := svc.OpenBoard(context.Background(), boardID)
		return boardOpenedMsg{boardID: boardID, view: view, reorder: reorder, err: err}
	}
}

// backToPicker leaves the board page and refreshes the board index.
func (m Model) backToPicker() (tea.Model, tea.Cmd) {
	m.page = pagePicker
	m.mode = modeNone
	m.boardID = ""
	m.view = nil
	m.reorder = nil
	m.boardErr = nil
	m.drag = nil
	m.status = "loading"
	return m, m.loadBoards
}

func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	if m.confirmQuit {
		m.mode = modeConfirmQuit
		m.status = "quit?"
		return m, nil
	}
	return m, tea.Quit
}

// handlePickerKey handles keys on the board picker.
func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.requestQuit()
	case key.Matches(msg, m.keys.reload):
		m.status = "loading"
		return m, m.loadBoards
	case m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selectedBoard = clamp(m.selectedBoard-1, 0, len(m.boards)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selectedBoard = clamp(m.selectedBoard+1, 0, len(m.boards)-1)
		return m, nil
	case key.Matches(msg, m.keys.newBoard):
		return m, m.startBoardForm()
	case key.Matches(msg, m.keys.openBoard):
		if len(m.boards) == 0 {
			return m, nil
		}
		board := m.boards[clamp(m.selectedBoard, 0, len(m.boards)-1)]
		return m, m.openBoard(board.ID)
	}
	return m, nil
}

// handleBoardKey handles keys on the board page outside any overlay.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.boardErr != nil || m.view == nil {
		switch {
		case key.Matches(msg, m.keys.back):
			return m.backToPicker()
		case key.Matches(msg, m.keys.quit):
			return m.requestQuit()
		}
		return m, nil
	}
	if m.drag != nil {
		return m.handleDragKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.requestQuit()
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.back):
		return m.backToPicker()
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading"
		return m, m.fetchBoard(m.boardID)
	case key.Matches(msg, m.keys.moveLeft):
		m.selectedList--
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.selectedList++
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selectedCard--
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selectedCard++
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.grab):
		return m.beginKeyboardDrag()
	case key.Matches(msg, m.keys.addCard):
		if _, ok := m.currentList(); !ok {
			m.status = "add a list first"
			return m, nil
		}
		return m, m.startCardForm(nil)
	case key.Matches(msg, m.keys.editCard):
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		return m, m.startCardForm(&card)
	case key.Matches(msg, m.keys.cardInfo):
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		m.mode = modeCardInfo
		m.infoCardID = card.ID
		m.status = "card info"
		return m, nil
	case key.Matches(msg, m.keys.copyCardID):
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		return m, m.copyCardID(card.ID)
	case key.Matches(msg, m.keys.addList):
		return m, m.startListForm()
	case key.Matches(msg, m.keys.invite):
		return m, m.startInviteForm()
	case key.Matches(msg, m.keys.recommendations):
		return m.openRecommendations()
	}
	return m, nil
}

// handleInputModeKey routes keys to the active overlay.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmQuit:
		if s := msg.String(); s == "y" || s == "Y" {
			return m, tea.Quit
		}
		m.mode = modeNone
		m.status = "ready"
		return m, nil

	case modeAlert:
		m.mode = m.alertBack
		m.alert = ""
		m.alertBack = modeNone
		return m, nil

	case modeCardInfo:
		switch {
		case msg.String() == "esc" || key.Matches(msg, m.keys.cardInfo):
			m.mode = modeNone
			m.infoCardID = ""
			m.status = "ready"
		case key.Matches(msg, m.keys.copyCardID):
			return m, m.copyCardID(m.infoCardID)
		case msg.String() == "e":
			card, ok := m.cardByID(m.infoCardID)
			m.infoCardID = ""
			if !ok {
				m.mode = modeNone
				return m, nil
			}
			return m, m.startCardForm(&card)
		}
		return m, nil

	case modeRecommendations:
		switch {
		case msg.String() == "esc" || key.Matches(msg, m.keys.recommendations):
			m.mode = modeNone
			m.recsOffset = 0
			m.status = "ready"
		case key.Matches(msg, m.keys.moveDown):
			m.recsOffset = clamp(m.recsOffset+1, 0, len(m.recs)-1)
		case key.Matches(msg, m.keys.moveUp):
			m.recsOffset = clamp(m.recsOffset-1, 0, len(m.recs)-1)
		}
		return m, nil
	}
	if m.isFormMode() {
		return m.handleFormKey(msg)
	}
	return m, nil
}

// openRecommendations shows the overlay and loads the data once per board.
func (m Model) openRecommendations() (tea.Model, tea.Cmd) {
	m.mode = modeRecommendations
	m.recsOffset = 0
	m.status = "recommendations"
	if m.recsBoardID == m.boardID || m.recsLoading {
		return m, nil
	}
	m.recsLoading = true
	svc := m.svc
	boardID := m.boardID
	return m, func() tea.Msg {
		recs, err := svc.Recommendations(context.Background(), boardID)
		return recommendationsMsg{boardID: boardID, recs: recs, err: err}
	}
}

func (m Model) copyCardID(cardID string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return copiedMsg{cardID: cardID, err: write(cardID)}
	}
}

// currentList returns the focused list.
func (m Model) currentList() (domain.List, bool) {
	if m.view == nil {
		return domain.List{}, false
	}
	lists := m.view.Lists()
	if len(lists) == 0 {
		return domain.List{}, false
	}
	return lists[clamp(m.selectedList, 0, len(lists)-1)], true
}

// currentCard returns the focused card among the visible cards of the focused list.
func (m Model) currentCard() (domain.Card, bool) {
	list, ok := m.currentList()
	if !ok {
		return domain.Card{}, false
	}
	cards := list.VisibleCards()
	if m.selectedCard < 0 || m.selectedCard >= len(cards) {
		return domain.Card{}, false
	}
	return cards[m.selectedCard], true
}

func (m Model) cardByID(cardID string) (domain.Card, bool) {
	if m.view == nil || cardID == "" {
		return domain.Card{}, false
	}
	board := m.view.Board()
	li, ci, ok := board.FindCard(cardID)
	if !ok {
		return domain.Card{}, false
	}
	return board.Lists[li].Cards[ci], true
}

// clampSelection keeps the focused list and card inside the working copy.
func (m *Model) clampSelection() {
	if m.view == nil {
		return
	}
	lists := m.view.Lists()
	if len(lists) == 0 {
		m.selectedList, m.selectedCard = 0, 0
		m.listOffset = 0
		return
	}
	m.selectedList = clamp(m.selectedList, 0, len(lists)-1)
	m.selectedCard = clamp(m.selectedCard, 0, len(lists[m.selectedList].VisibleCards())-1)
	m.ensureListVisible()
}

// ensureListVisible scrolls the list window so the focused list is on screen.
func (m *Model) ensureListVisible() {
	if m.view == nil {
		return
	}
	total := len(m.view.Lists())
	visible := m.visibleListCount()
	if m.selectedList < m.listOffset {
		m.listOffset = m.selectedList
	}
	if m.selectedList >= m.listOffset+visible {
		m.listOffset = m.selectedList - visible + 1
	}
	m.listOffset = clamp(m.listOffset, 0, max(0, total-visible))
}

func (m Model) isFormMode() bool {
	switch m.mode {
	case modeAddBoard, modeAddList, modeAddCard, modeEditCard, modeInvite:
		return true
	}
	return false
}

// errorText prefers the server-supplied message.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	return app.ServerMessage(err, err.Error())
}

// clamp bounds v to [minV, maxV]. When maxV < minV it returns minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate shortens s to max runes with a trailing ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
