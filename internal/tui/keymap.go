package tui

import (
	"slices"
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// keyMap holds the TUI bindings.
type keyMap struct {
	quit            key.Binding
	reload          key.Binding
	toggleHelp      key.Binding
	moveLeft        key.Binding
	moveRight       key.Binding
	moveUp          key.Binding
	moveDown        key.Binding
	openBoard       key.Binding
	newBoard        key.Binding
	back            key.Binding
	addCard         key.Binding
	editCard        key.Binding
	cardInfo        key.Binding
	copyCardID      key.Binding
	addList         key.Binding
	invite          key.Binding
	recommendations key.Binding
	grab            key.Binding
	drop            key.Binding
	cancelDrag      key.Binding
}

// KeyConfig carries user overrides for configurable bindings.
type KeyConfig struct {
	Grab            string
	Recommendations string
	Invite          string
	AddList         string
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "list left")),
		moveRight:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "list right")),
		moveUp:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		openBoard:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open board")),
		newBoard:        key.NewBinding(key.WithKeys("N", "shift+n"), key.WithHelp("N", "new board")),
		back:            key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc/b", "boards")),
		addCard:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
		editCard:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit card")),
		cardInfo:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "card info")),
		copyCardID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy card id")),
		addList:         key.NewBinding(key.WithKeys("A", "shift+a"), key.WithHelp("A", "add list")),
		invite:          key.NewBinding(key.WithKeys("I", "shift+i"), key.WithHelp("I", "invite member")),
		recommendations: key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "recommendations")),
		grab:            key.NewBinding(key.WithKeys("m", " ", "space"), key.WithHelp("m/space", "grab card")),
		drop:            key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancelDrag:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
	}
}

// applyConfig applies configured overrides. The grab binding keeps space as an alias.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.grab, cfg.Grab, "m", "grab card")
	if keys := k.grab.Keys(); !slices.Contains(keys, " ") {
		k.grab.SetKeys(append(keys, " ", "space")...)
		k.grab.SetHelp(k.grab.Help().Key+"/space", "grab card")
	}
	configureBinding(&k.recommendations, cfg.Recommendations, "R", "recommendations")
	configureBinding(&k.invite, cfg.Invite, "I", "invite member")
	configureBinding(&k.addList, cfg.AddList, "A", "add list")
}

// configureBinding replaces keys and help text on b from a raw config value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(raw)
	if len(runes) == 1 {
		r := runes[0]
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// pickerKeys is the help view for the board picker.
type pickerKeys struct{ k keyMap }

// ShortHelp returns the short picker help.
func (p pickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{p.k.openBoard, p.k.newBoard, p.k.reload, p.k.quit}
}

// FullHelp returns the full picker help.
func (p pickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{p.k.moveUp, p.k.moveDown, p.k.openBoard, p.k.newBoard, p.k.reload, p.k.toggleHelp, p.k.quit}}
}

// dragKeys is the help view while a card is held.
type dragKeys struct{ k keyMap }

// ShortHelp returns the drag help.
func (d dragKeys) ShortHelp() []key.Binding {
	return []key.Binding{d.k.moveLeft, d.k.moveRight, d.k.moveUp, d.k.moveDown, d.k.drop, d.k.cancelDrag}
}

// FullHelp returns the drag help.
func (d dragKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{d.ShortHelp()}
}

// ShortHelp returns the short board help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addCard, k.editCard, k.grab, k.addList, k.invite, k.recommendations, k.back, k.quit,
	}
}

// FullHelp returns the full board help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addCard, k.editCard, k.cardInfo, k.copyCardID, k.addList, k.invite, k.recommendations},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.grab},
		{k.reload, k.back, k.toggleHelp, k.quit},
	}
}
