package restapi

import (
	"encoding/json"
	"strings"

	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/domain"
)

type wirePerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type wireCard struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"dueDate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedBy   wirePerson `json:"createdBy"`
}

type wireList struct {
	ID    string     `json:"_id"`
	Name  string     `json:"name"`
	Board string     `json:"board"`
	Cards []wireCard `json:"cards"`
}

type wireBoard struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Owner       wirePerson   `json:"owner"`
	Members     []wirePerson `json:"members"`
	Lists       []wireList   `json:"lists"`
}

type wireRecommendation struct {
	CardTitle string `json:"cardTitle"`
	Reason    string `json:"reason"`
	Severity  string `json:"severity"`
	Type      string `json:"type"`
	Action    string `json:"action"`
}

type boardEnvelope struct {
	Board wireBoard `json:"board"`
}

type boardsEnvelope struct {
	Boards []wireBoard `json:"boards"`
}

type recommendationsEnvelope struct {
	Recommendations []wireRecommendation `json:"recommendations"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type createCardBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

// updateCardBody omits dueDate when unchanged and sends null when cleared.
type updateCardBody struct {
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     app.DueDateChange
}

// MarshalJSON implements json.Marshaler.
func (b updateCardBody) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"title":       b.Title,
		"description": b.Description,
		"priority":    b.Priority,
		"status":      b.Status,
	}
	switch b.DueDate.Action {
	case app.DueDateSet:
		out["dueDate"] = domain.FormatDueDate(&b.DueDate.Date)
	case app.DueDateClear:
		out["dueDate"] = nil
	}
	return json.Marshal(out)
}

type moveCardBody struct {
	NewListID string `json:"newListId"`
	Position  int    `json:"position"`
}

func (p wirePerson) toDomain() domain.Person {
	return domain.Person{Name: strings.TrimSpace(p.Name), Email: strings.TrimSpace(p.Email)}
}

func (c wireCard) toDomain() domain.Card {
	card := domain.Card{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Priority:    domain.Priority(c.Priority),
		Status:      domain.Status(c.Status),
		CreatedBy:   c.CreatedBy.toDomain(),
	}
	if due, err := domain.ParseDueDate(c.DueDate); err == nil {
		card.DueDate = &due
	}
	return card
}

func (l wireList) toDomain() domain.List {
	cards := make([]domain.Card, 0, len(l.Cards))
	for _, c := range l.Cards {
		cards = append(cards, c.toDomain())
	}
	return domain.List{ID: l.ID, Name: l.Name, BoardID: l.Board, Cards: cards}
}

func (b wireBoard) toDomain() domain.Board {
	members := make([]domain.Person, 0, len(b.Members))
	for _, m := range b.Members {
		members = append(members, m.toDomain())
	}
	lists := make([]domain.List, 0, len(b.Lists))
	for _, l := range b.Lists {
		lists = append(lists, l.toDomain())
	}
	return domain.Board{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Owner:       b.Owner.toDomain(),
		Members:     members,
		Lists:       lists,
	}
}

func (r wireRecommendation) toDomain() domain.Recommendation {
	return domain.Recommendation{
		CardTitle: r.CardTitle,
		Reason:    r.Reason,
		Severity:  domain.Severity(strings.ToLower(strings.TrimSpace(r.Severity))),
		Type:      domain.RecommendationType(strings.TrimSpace(r.Type)),
		Action:    strings.TrimSpace(r.Action),
	}
}
