package tui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

// layout rows shared by rendering and mouse hit testing.
const (
	boardHeaderRows  = 3
	pickerHeaderRows = 2
	pickerRowSpan    = 4
	columnHeaderRows = 3 // top border, list name, divider
	footerRows       = 3
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	titleColor  = lipgloss.Color("252")
	selectColor = lipgloss.Color("212")
	warnColor   = lipgloss.Color("203")
	soonColor   = lipgloss.Color("214")
)

var priorityColors = map[domain.Priority]color.Color{
	domain.PriorityCritical: lipgloss.Color("196"),
	domain.PriorityHigh:     lipgloss.Color("208"),
	domain.PriorityMedium:   lipgloss.Color("220"),
	domain.PriorityLow:      lipgloss.Color("70"),
}

var severityColors = map[domain.Severity]color.Color{
	domain.SeverityHigh:   warnColor,
	domain.SeverityMedium: soonColor,
	domain.SeverityLow:    lipgloss.Color("70"),
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// View renders the active page and overlay.
func (m Model) View() tea.View {
	return newView(m.render())
}

func (m Model) render() string {
	if m.err != nil {
		return "error: " + app.ServerMessage(m.err, "Failed to load boards") + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}
	if m.page == pageBoard {
		if m.boardErr != nil {
			return "error: " + app.ServerMessage(m.boardErr, "Failed to load board") + "\n\npress b to go back to boards\n"
		}
		if m.view == nil {
			return "loading board..."
		}
		return m.composeWithOverlay(m.renderBoard(), m.currentHelp())
	}
	return m.composeWithOverlay(m.renderPicker(), m.currentHelp())
}

func (m Model) currentHelp() help.KeyMap {
	switch {
	case m.page == pagePicker:
		return pickerKeys{m.keys}
	case m.drag != nil:
		return dragKeys{m.keys}
	}
	return m.keys
}

// composeWithOverlay appends the status and help lines and centres any overlay.
func (m Model) composeWithOverlay(content string, keys help.KeyMap) string {
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(keys))
	status := statusStyle.Render(m.status)

	if m.height > 0 {
		contentHeight := max(0, m.height-lipgloss.Height(helpLine)-1)
		content = fitLines(content, contentHeight)
	}
	full := content + "\n" + status + "\n" + helpLine
	if overlay := m.renderModeOverlay(m.width - 8); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// renderPicker renders the board index.
func (m Model) renderPicker() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(selectColor)

	header := titleStyle.Render("boardwalk") + "  Your Boards"
	if m.greeting != "" {
		header += statusStyle.Render("  Welcome, " + m.greeting)
	}
	lines := []string{header, ""}
	if len(m.boards) == 0 {
		lines = append(lines,
			"You haven't created any boards yet.",
			mutedStyle.Render("Press N to create your first board."),
		)
		return strings.Join(lines, "\n")
	}
	for idx, board := range m.boards {
		prefix := "  "
		name := board.Name
		if idx == m.selectedBoard {
			prefix = "│ "
			name = selectedStyle.Render(name)
		}
		meta := board.MemberCountLabel()
		if owner := board.Owner.Label(); owner != "" {
			meta += " • Owned by " + owner
		}
		lines = append(lines,
			prefix+name,
			prefix+mutedStyle.Render(truncate(board.Description, max(16, m.width-4))),
			prefix+mutedStyle.Render(meta),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// renderBoard renders the header and the visible list columns.
func (m Model) renderBoard() string {
	board := m.view.Board()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)

	header := titleStyle.Render("boardwalk") + "  " + board.Name
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	if len(board.Members) > 0 {
		header += statusStyle.Render("  " + board.Summary().MemberCountLabel())
	}
	sub := mutedStyle.Render(truncate(board.Description, max(16, m.width-2)))
	if m.drag != nil {
		sub = lipgloss.NewStyle().Foreground(accentColor).Render("holding: " + truncate(m.drag.title, 40))
	}

	lists := m.view.Lists()
	if len(lists) == 0 {
		return strings.Join([]string{header, sub, "", mutedStyle.Render("No lists yet. Press " + m.keys.addList.Help().Key + " to add one.")}, "\n")
	}

	visible := m.visibleListCount()
	end := min(len(lists), m.listOffset+visible)
	columns := make([]string, 0, end-m.listOffset)
	for li := m.listOffset; li < end; li++ {
		columns = append(columns, m.renderList(li, lists[li]))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	if hidden := len(lists) - end + m.listOffset; hidden > 0 {
		header += statusStyle.Render(fmt.Sprintf("  lists %d-%d of %d", m.listOffset+1, end, len(lists)))
	}
	return strings.Join([]string{header, sub, "", row}, "\n")
}

func (m Model) columnStyle(selected bool) lipgloss.Style {
	border := dimColor
	if selected {
		border = accentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(m.columnWidth())
}

// renderList renders one column. While dragging, the target column shows a
// drop marker in place of the held card.
func (m Model) renderList(li int, list domain.List) string {
	width := m.contentWidth()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)

	cards := list.VisibleCards()
	lines := []string{
		titleStyle.Render(truncate(fmt.Sprintf("%s (%d)", list.Name, len(cards)), width)),
		mutedStyle.Render(strings.Repeat("─", max(1, width))),
	}

	var blocks [][]string
	if m.drag != nil && list.ID == m.drag.target.ListID {
		others := make([]domain.Card, 0, len(cards))
		for _, c := range cards {
			if c.ID != m.drag.cardID {
				others = append(others, c)
			}
		}
		at := clamp(m.drag.target.Index, 0, len(others))
		for i, c := range others {
			if i == at {
				blocks = append(blocks, m.dropMarker())
			}
			blocks = append(blocks, m.renderCard(c, false, false, width))
		}
		if at == len(others) {
			blocks = append(blocks, m.dropMarker())
		}
	} else {
		for i, c := range cards {
			selected := m.drag == nil && li == m.selectedList && i == m.selectedCard
			held := m.drag != nil && c.ID == m.drag.cardID
			blocks = append(blocks, m.renderCard(c, selected, held, width))
		}
	}
	if len(blocks) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for _, block := range blocks[min(m.cardOffset(li), len(blocks)):] {
		lines = append(lines, block...)
	}

	content := fitLines(strings.Join(lines, "\n"), max(1, m.columnHeight()-2))
	return m.columnStyle(li == m.selectedList).Render(content)
}

func (m Model) dropMarker() []string {
	lines := make([]string, m.cardSpan())
	lines[0] = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("▸ drop here")
	return lines
}

// renderCard renders exactly cardSpan lines for card.
func (m Model) renderCard(card domain.Card, selected, held bool, width int) []string {
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	titleStyle := lipgloss.NewStyle()
	prefix := "  "
	switch {
	case selected:
		prefix = "│ "
		titleStyle = lipgloss.NewStyle().Bold(true).Foreground(selectColor)
	case held:
		prefix = "┆ "
		titleStyle = lipgloss.NewStyle().Foreground(dimColor).Italic(true)
	}
	inner := max(1, width-2)
	lines := []string{prefix + titleStyle.Render(truncate(card.Title, inner))}

	f := m.cardFields
	if f.ShowPriority || f.ShowStatus || f.ShowDueDate {
		parts := make([]string, 0, 3)
		if f.ShowStatus {
			parts = append(parts, card.Status.OrDefault().Glyph())
		}
		if f.ShowPriority {
			p := card.Priority.OrDefault()
			parts = append(parts, lipgloss.NewStyle().Foreground(priorityColors[p]).Render(string(p)))
		}
		if f.ShowDueDate && card.DueDate != nil {
			parts = append(parts, m.dueStyle(card).Render("Due: "+domain.FormatDueDate(card.DueDate)))
		}
		lines = append(lines, prefix+ansi.Truncate(strings.Join(parts, mutedStyle.Render(" • ")), inner, "…"))
	}
	if f.ShowDescription {
		lines = append(lines, prefix+mutedStyle.Render(truncate(firstLine(card.Description), inner)))
	}
	return append(lines, "")
}

// dueStyle colours overdue and due-soon dates.
func (m Model) dueStyle(card domain.Card) lipgloss.Style {
	now := m.now()
	switch {
	case card.Overdue(now):
		return lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	case card.DueWithin(now, m.dueSoon):
		return lipgloss.NewStyle().Foreground(soonColor)
	}
	return lipgloss.NewStyle().Foreground(mutedColor)
}

func (m Model) modeLabel() string {
	if m.drag != nil {
		return "drag"
	}
	switch m.mode {
	case modeAddCard:
		return "new card"
	case modeEditCard:
		return "edit card"
	case modeAddList:
		return "new list"
	case modeInvite:
		return "invite"
	case modeCardInfo:
		return "card info"
	case modeRecommendations:
		return "recommendations"
	case modeAlert:
		return "alert"
	case modeConfirmQuit:
		return "quit?"
	}
	return "normal"
}

// renderModeOverlay renders the active overlay box, or "" when none is open.
func (m Model) renderModeOverlay(maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 24, 84))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)
	errStyle := lipgloss.NewStyle().Foreground(warnColor)

	switch m.mode {
	case modeConfirmQuit:
		return boxStyle.Render(titleStyle.Render("Quit boardwalk?") + "\n" + hintStyle.Render("y quit • any other key stay"))

	case modeAlert:
		return boxStyle.BorderForeground(warnColor).Render(
			errStyle.Bold(true).Render(m.alert) + "\n" + hintStyle.Render("press any key"),
		)

	case modeCardInfo:
		card, ok := m.cardByID(m.infoCardID)
		if !ok {
			return boxStyle.Render(hintStyle.Render("card no longer on this board • esc close"))
		}
		due := "-"
		if card.DueDate != nil {
			due = m.dueStyle(card).Render(domain.FormatDueDate(card.DueDate))
		}
		lines := []string{
			titleStyle.Render("Card Info"),
			card.Title,
			hintStyle.Render("status: ") + card.Status.OrDefault().Glyph() + " " + string(card.Status.OrDefault()) +
				hintStyle.Render(" • priority: ") + lipgloss.NewStyle().Foreground(priorityColors[card.Priority.OrDefault()]).Render(string(card.Priority.OrDefault())),
			hintStyle.Render("due: ") + due,
		}
		if card.Overdue(m.now()) {
			lines = append(lines, errStyle.Bold(true).Render("overdue"))
		}
		if author := card.CreatedBy.Label(); author != "" {
			lines = append(lines, hintStyle.Render("created by: "+author))
		}
		lines = append(lines, hintStyle.Render("id: "+card.ID), "")
		if body := m.markdown.render(card.Description, max(24, clamp(maxWidth, 24, 84)-4)); body != "" {
			lines = append(lines, body)
		} else {
			lines = append(lines, hintStyle.Render("(no description)"))
		}
		lines = append(lines, "", hintStyle.Render("e edit • y copy id • esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeRecommendations:
		return boxStyle.Render(m.renderRecommendations(titleStyle, hintStyle))
	}

	if !m.isFormMode() {
		return ""
	}
	title := "Input"
	hint := "enter next/save • tab next field • esc cancel"
	switch m.mode {
	case modeAddBoard:
		title = "New Board"
	case modeAddList:
		title = "New List"
	case modeInvite:
		title = "Invite Member"
	case modeAddCard:
		title = "New Card"
		hint = "ctrl+s save • tab next field • ←/→ cycle • ctrl+d clear due • esc cancel"
	case modeEditCard:
		title = "Edit Card"
		hint = "ctrl+s save • tab next field • ←/→ cycle • ctrl+d clear due • esc cancel"
	}
	lines := []string{titleStyle.Render(title)}
	fieldWidth := max(18, clamp(maxWidth, 24, 84)-18)
	labels := []string{"name", "description"}
	switch m.mode {
	case modeAddList:
		labels = []string{"name"}
	case modeInvite:
		labels = []string{"email"}
	case modeAddCard, modeEditCard:
		labels = cardFormFields
	}
	for i, in := range m.formInputs {
		label := fmt.Sprintf("%d.", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		labelStyle := lipgloss.NewStyle().Foreground(mutedColor)
		if i == m.formFocus {
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
		}
		label = labelStyle.Render(fmt.Sprintf("%-12s", label+":"))
		if m.isCardForm() && i == cardFieldPriority {
			lines = append(lines, label+" "+renderOptions(priorityOptions, m.priorityIdx))
			continue
		}
		if m.isCardForm() && i == cardFieldStatus {
			lines = append(lines, label+" "+renderOptions(statusOptions, m.statusIdx))
			continue
		}
		in.SetWidth(fieldWidth)
		lines = append(lines, label+" "+in.View())
	}
	if m.formErr != "" {
		lines = append(lines, errStyle.Render(m.formErr))
	}
	lines = append(lines, hintStyle.Render(hint))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderRecommendations(titleStyle, hintStyle lipgloss.Style) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Smart Alerts & Suggestions (%d)", len(m.recs)))}
	switch {
	case m.recsLoading:
		lines = append(lines, hintStyle.Render("loading recommendations..."))
	case len(m.recs) == 0:
		lines = append(lines, hintStyle.Render("No recommendations available."))
	default:
		const window = 5
		start := clamp(m.recsOffset, 0, len(m.recs)-1)
		end := min(len(m.recs), start+window)
		for _, rec := range m.recs[start:end] {
			glyph := rec.Type.Glyph()
			if glyph != "" {
				glyph += " "
			}
			severity := lipgloss.NewStyle().Bold(true).Foreground(severityColors[rec.Severity]).Render(rec.Severity.Label())
			lines = append(lines,
				"",
				glyph+lipgloss.NewStyle().Bold(true).Render(rec.CardTitle),
				"  "+rec.Reason,
				"  "+severity+hintStyle.Render(" • "+rec.Type.Label()),
			)
			if action := strings.TrimSpace(rec.Action); action != "" {
				lines = append(lines, "  → "+action)
			}
		}
		if len(m.recs) > window {
			lines = append(lines, "", hintStyle.Render(fmt.Sprintf("%d-%d of %d • j/k scroll", start+1, end, len(m.recs))))
		}
	}
	lines = append(lines, "", hintStyle.Render("esc close"))
	return strings.Join(lines, "\n")
}

func renderOptions[T ~string](options []T, active int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	baseStyle := lipgloss.NewStyle().Foreground(mutedColor)
	parts := make([]string, 0, len(options))
	for i, o := range options {
		if i == active {
			parts = append(parts, activeStyle.Render("["+string(o)+"]"))
			continue
		}
		parts = append(parts, baseStyle.Render(string(o)))
	}
	return strings.Join(parts, " ")
}

// boardTop is the first screen row of the list columns.
func (m Model) boardTop() int {
	return boardHeaderRows
}

// pickerTop is the first screen row of the board index.
func (m Model) pickerTop() int {
	return pickerHeaderRows
}

// columnWidth returns the width handed to the column style.
func (m Model) columnWidth() int {
	if m.width <= 0 || m.view == nil {
		return 28
	}
	n := max(1, len(m.view.Lists()))
	return clamp(m.width/n-5, 24, 36)
}

// contentWidth is the text width inside a column.
func (m Model) contentWidth() int {
	return max(8, m.columnWidth()-4)
}

// columnSpan is the full horizontal footprint of one column, margin included.
func (m Model) columnSpan() int {
	return lipgloss.Width(m.columnStyle(false).Render(""))
}

func (m Model) visibleListCount() int {
	total := 1
	if m.view != nil {
		total = max(1, len(m.view.Lists()))
	}
	if m.width <= 0 {
		return total
	}
	return clamp(m.width/max(1, m.columnSpan()), 1, total)
}

// columnHeight is the outer height of a column, borders included.
func (m Model) columnHeight() int {
	if m.height <= 0 {
		return 24
	}
	return max(8, m.height-m.boardTop()-footerRows)
}

// cardSpan is the number of rows one card occupies.
func (m Model) cardSpan() int {
	n := 2
	if f := m.cardFields; f.ShowPriority || f.ShowStatus || f.ShowDueDate {
		n++
	}
	if m.cardFields.ShowDescription {
		n++
	}
	return n
}

// cardOffset is how many card blocks the focused column scrolls past.
func (m Model) cardOffset(li int) int {
	if li != m.selectedList {
		return 0
	}
	capacity := max(1, (m.columnHeight()-2-2)/m.cardSpan())
	if m.selectedCard >= capacity {
		return m.selectedCard - capacity + 1
	}
	return 0
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centres overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}
