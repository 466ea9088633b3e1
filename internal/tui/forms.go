package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// card form field indexes.
const (
	cardFieldTitle = iota
	cardFieldDescription
	cardFieldPriority
	cardFieldStatus
	cardFieldDue
)

var cardFormFields = []string{"title", "description", "priority", "status", "due"}

var (
	priorityOptions = domain.Priorities()
	statusOptions   = domain.Statuses()
)

// newModalInput constructs a text input for overlay forms.
func newModalInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// startCardForm opens the card form. A nil card creates a card in the focused list.
func (m *Model) startCardForm(card *domain.Card) tea.Cmd {
	m.formErr = ""
	m.formInputs = []textinput.Model{
		newModalInput("card title (required)", "", 120),
		newModalInput("description (markdown)", "", 1000),
		newModalInput("", "", 0),
		newModalInput("", "", 0),
		newModalInput("YYYY-MM-DD or -", "", 32),
	}
	m.priorityIdx = optionIndex(priorityOptions, domain.PriorityMedium)
	m.statusIdx = optionIndex(statusOptions, domain.StatusTodo)
	if card != nil {
		m.formInputs[cardFieldTitle].SetValue(card.Title)
		m.formInputs[cardFieldDescription].SetValue(card.Description)
		m.formInputs[cardFieldDue].SetValue(domain.FormatDueDate(card.DueDate))
		m.priorityIdx = optionIndex(priorityOptions, card.Priority.OrDefault())
		m.statusIdx = optionIndex(statusOptions, card.Status.OrDefault())
		m.mode = modeEditCard
		m.editingCardID = card.ID
		m.formListID = ""
		m.status = "edit card"
	} else {
		list, _ := m.currentList()
		m.mode = modeAddCard
		m.editingCardID = ""
		m.formListID = list.ID
		m.status = "new card"
	}
	return m.focusFormField(cardFieldTitle)
}

func (m *Model) startListForm() tea.Cmd {
	m.formErr = ""
	m.formInputs = []textinput.Model{newModalInput("list name (required)", "", 80)}
	m.mode = modeAddList
	m.status = "new list"
	return m.focusFormField(0)
}

func (m *Model) startInviteForm() tea.Cmd {
	m.formErr = ""
	m.formInputs = []textinput.Model{newModalInput("member email", "", 254)}
	m.mode = modeInvite
	m.status = "invite member"
	return m.focusFormField(0)
}

func (m *Model) startBoardForm() tea.Cmd {
	m.formErr = ""
	m.formInputs = []textinput.Model{
		newModalInput("board name (required)", "", 80),
		newModalInput("description", "", 240),
	}
	m.mode = modeAddBoard
	m.status = "new board"
	return m.focusFormField(0)
}

// closeForm drops form state and returns to the page.
func (m *Model) closeForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.formErr = ""
	m.editingCardID = ""
	m.formListID = ""
}

// focusFormField focuses field idx. Picker fields take no text focus.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	if m.isCardForm() && (idx == cardFieldPriority || idx == cardFieldStatus) {
		return nil
	}
	return m.formInputs[idx].Focus()
}

func (m Model) isCardForm() bool {
	return m.mode == modeAddCard || m.mode == modeEditCard
}

// handleFormKey handles keys for every overlay form.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	last := len(m.formInputs) - 1
	switch s := msg.String(); {
	case s == "esc":
		m.closeForm()
		m.status = "cancelled"
		return m, nil
	case s == "ctrl+s":
		return m.submitForm()
	case s == "enter":
		if m.formFocus >= last {
			return m.submitForm()
		}
		return m, m.focusFormField(m.formFocus + 1)
	case s == "tab" || s == "down":
		return m, m.focusFormField(m.formFocus + 1)
	case s == "shift+tab" || s == "up":
		return m, m.focusFormField(m.formFocus - 1)
	case s == "ctrl+d" && m.isCardForm():
		m.formInputs[cardFieldDue].SetValue("")
		m.status = "due date cleared"
		return m, nil
	}

	if m.isCardForm() && (m.formFocus == cardFieldPriority || m.formFocus == cardFieldStatus) {
		step := 0
		switch msg.String() {
		case "left", "h":
			step = -1
		case "right", "l":
			step = 1
		}
		if m.formFocus == cardFieldPriority {
			m.priorityIdx = cycle(m.priorityIdx, step, len(priorityOptions))
		} else {
			m.statusIdx = cycle(m.statusIdx, step, len(statusOptions))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// submitForm validates the open form and starts the request. The form stays
// open until the result arrives.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	svc := m.svc
	mode := m.mode
	boardID := m.boardID
	vals := m.formValues()
	m.formErr = ""

	switch mode {
	case modeAddBoard:
		in := app.CreateBoardInput{Name: vals[0], Description: vals[1]}
		if in.Name == "" {
			m.formErr = "board name is required"
			return m, nil
		}
		m.status = "creating board"
		return m, func() tea.Msg {
			err := svc.CreateBoard(context.Background(), in)
			return actionMsg{mode: mode, err: err, status: "board created", reloadBoards: true}
		}

	case modeAddList:
		in := app.CreateListInput{BoardID: boardID, Name: vals[0]}
		if in.Name == "" {
			m.formErr = "list name is required"
			return m, nil
		}
		m.status = "creating list"
		return m, func() tea.Msg {
			err := svc.CreateList(context.Background(), in)
			return actionMsg{mode: mode, err: err, status: "list created", reloadBoard: true}
		}

	case modeInvite:
		in := app.InviteMemberInput{BoardID: boardID, Email: vals[0]}
		if in.Email == "" {
			m.formErr = "email is required"
			return m, nil
		}
		m.status = "inviting " + in.Email
		return m, func() tea.Msg {
			err := svc.InviteMember(context.Background(), in)
			return actionMsg{mode: mode, err: err, status: "invited " + in.Email, reloadBoard: true}
		}

	case modeAddCard, modeEditCard:
		title := vals[cardFieldTitle]
		if title == "" {
			m.formErr = "title is required"
			return m, nil
		}
		due, err := parseDueInput(vals[cardFieldDue])
		if err != nil {
			m.formErr = err.Error()
			return m, m.focusFormField(cardFieldDue)
		}
		priority := priorityOptions[clamp(m.priorityIdx, 0, len(priorityOptions)-1)]
		status := statusOptions[clamp(m.statusIdx, 0, len(statusOptions)-1)]

		if mode == modeAddCard {
			in := app.CreateCardInput{
				BoardID:     boardID,
				ListID:      m.formListID,
				Title:       title,
				Description: vals[cardFieldDescription],
				Priority:    priority,
				Status:      status,
				DueDate:     due,
			}
			m.status = "creating card"
			return m, func() tea.Msg {
				err := svc.CreateCard(context.Background(), in)
				return actionMsg{mode: mode, err: err, status: "card created", reloadBoard: true}
			}
		}
		in := app.UpdateCardInput{
			CardID:      m.editingCardID,
			Title:       title,
			Description: vals[cardFieldDescription],
			Priority:    priority,
			Status:      status,
			DueDate:     app.DueDateFrom(due),
		}
		m.status = "saving card"
		return m, func() tea.Msg {
			err := svc.UpdateCard(context.Background(), in)
			return actionMsg{mode: mode, err: err, status: "card updated", reloadBoard: true}
		}
	}
	return m, nil
}

// formValues returns the trimmed value of every form input.
func (m Model) formValues() []string {
	out := make([]string, len(m.formInputs))
	for i, in := range m.formInputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

var errDueFormat = errors.New("due date must be YYYY-MM-DD or -")

// parseDueInput reads the due field. Blank and "-" mean no due date.
func parseDueInput(raw string) (*time.Time, error) {
	due, err := app.ParseDueInput(raw)
	if err != nil {
		return nil, errDueFormat
	}
	return due, nil
}

func optionIndex[T comparable](options []T, v T) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return 0
}

// cycle steps idx by step around n options.
func cycle(idx, step, n int) int {
	if n <= 0 {
		return 0
	}
	return ((idx+step)%n + n) % n
}
