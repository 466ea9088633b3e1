package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Person identifies a board owner, member, or card author.
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Label returns the display name, falling back to the email.
func (p Person) Label() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return strings.TrimSpace(p.Email)
}

// List is an ordered column of cards.
type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"board_id,omitempty"`
	Cards   []Card `json:"cards"`
}

// CardIndex returns the position of cardID in the list, or -1.
func (l List) CardIndex(cardID string) int {
	return slices.IndexFunc(l.Cards, func(c Card) bool { return c.ID == cardID })
}

// VisibleCards returns the cards that carry an identity, in order.
func (l List) VisibleCards() []Card {
	out := make([]Card, 0, len(l.Cards))
	for _, c := range l.Cards {
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// Board is a named collection of ordered lists.
type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       Person   `json:"owner"`
	Members     []Person `json:"members,omitempty"`
	Lists       []List   `json:"lists"`
}

// ListIndex returns the position of listID on the board, or -1.
func (b Board) ListIndex(listID string) int {
	return slices.IndexFunc(b.Lists, func(l List) bool { return l.ID == listID })
}

// FindCard locates a card by id and returns its list index and card index.
func (b Board) FindCard(cardID string) (int, int, bool) {
	for li, l := range b.Lists {
		if ci := l.CardIndex(cardID); ci >= 0 {
			return li, ci, true
		}
	}
	return -1, -1, false
}

// Clone returns a deep copy of the board's lists and cards.
func (b Board) Clone() Board {
	out := b
	out.Members = slices.Clone(b.Members)
	out.Lists = CloneLists(b.Lists)
	return out
}

// CloneLists deep-copies a list sequence, including each card's due date.
func CloneLists(lists []List) []List {
	if lists == nil {
		return nil
	}
	out := make([]List, len(lists))
	for i, l := range lists {
		out[i] = l
		out[i].Cards = make([]Card, len(l.Cards))
		for j, c := range l.Cards {
			if c.DueDate != nil {
				due := *c.DueDate
				c.DueDate = &due
			}
			out[i].Cards[j] = c
		}
	}
	return out
}

// Summary strips the lists from a board.
func (b Board) Summary() BoardSummary {
	return BoardSummary{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Owner:       b.Owner,
		Members:     slices.Clone(b.Members),
	}
}

// BoardSummary is a board as returned by the board index.
type BoardSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       Person   `json:"owner"`
	Members     []Person `json:"members,omitempty"`
}

// MemberCountLabel renders "1 member" or "N members".
func (s BoardSummary) MemberCountLabel() string {
	if len(s.Members) == 1 {
		return "1 member"
	}
	return strconv.Itoa(len(s.Members)) + " members"
}
