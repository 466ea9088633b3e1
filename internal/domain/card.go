package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority is the urgency label the backend stores on a card.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

var validPriorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Priorities returns the supported priorities from most to least urgent.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// ParsePriority resolves a priority case-insensitively. Empty input yields Medium.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PriorityMedium, nil
	}
	for _, p := range validPriorities {
		if strings.EqualFold(string(p), raw) {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

// OrDefault returns Medium for unknown or empty priorities.
func (p Priority) OrDefault() Priority {
	if slices.Contains(validPriorities, p) {
		return p
	}
	return PriorityMedium
}

// Status is the workflow state of a card.
type Status string

const (
	StatusBacklog    Status = "Backlog"
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusDone       Status = "Done"
	StatusBlocked    Status = "Blocked"
)

var validStatuses = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked}

// Statuses returns the supported statuses in workflow order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// ParseStatus resolves a status case-insensitively. "in-progress" and
// "in_progress" are accepted for In Progress. Empty input yields Todo.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusTodo, nil
	}
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(raw)
	for _, s := range validStatuses {
		if strings.EqualFold(string(s), norm) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// OrDefault returns Todo for unknown or empty statuses.
func (s Status) OrDefault() Status {
	if slices.Contains(validStatuses, s) {
		return s
	}
	return StatusTodo
}

// Glyph returns the status icon shown next to a card title.
func (s Status) Glyph() string {
	switch s.OrDefault() {
	case StatusBacklog:
		return "📋"
	case StatusInProgress:
		return "⚡"
	case StatusReview:
		return "👀"
	case StatusDone:
		return "✅"
	case StatusBlocked:
		return "🚫"
	default:
		return "📝"
	}
}

// Card is one unit of work inside a list.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedBy   Person     `json:"created_by"`
}

// Valid reports whether the card carries a server-assigned identity.
func (c Card) Valid() bool {
	return strings.TrimSpace(c.ID) != ""
}

// Overdue reports whether the due date is before the start of now's day.
func (c Card) Overdue(now time.Time) bool {
	if c.DueDate == nil || c.Status == StatusDone {
		return false
	}
	y, m, d := now.Date()
	return c.DueDate.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// DueWithin reports whether the due date falls inside [now, now+window).
func (c Card) DueWithin(now time.Time, window time.Duration) bool {
	if c.DueDate == nil || c.Status == StatusDone || window <= 0 {
		return false
	}
	return !c.DueDate.Before(now) && c.DueDate.Before(now.Add(window))
}

const dueDateLayout = "2006-01-02"

var dueDateLayouts = []string{
	dueDateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04",
}

// ParseDueDate parses a due date in any accepted layout. The result is UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDueDate
	}
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}

// FormatDueDate renders a due date as YYYY-MM-DD, or "" when unset.
func FormatDueDate(due *time.Time) string {
	if due == nil {
		return ""
	}
	return due.UTC().Format(dueDateLayout)
}
