package domain

import (
	"strings"
)

// Severity ranks how urgently a recommendation should be acted on.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ParseSeverity resolves a severity case-insensitively. Empty input yields low.
func ParseSeverity(raw string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	default:
		return "", ErrInvalidSeverity
	}
}

// Label renders the severity as "HIGH PRIORITY" and similar. Unknown
// severities render as low.
func (s Severity) Label() string {
	sev, err := ParseSeverity(string(s))
	if err != nil {
		sev = SeverityLow
	}
	return strings.ToUpper(string(sev)) + " PRIORITY"
}

// RecommendationType names the rule that produced a recommendation.
type RecommendationType string

const (
	RecommendationOverdue               RecommendationType = "overdue"
	RecommendationDueSoon               RecommendationType = "due_soon"
	RecommendationCriticalPriority      RecommendationType = "critical_priority"
	RecommendationHighPriorityWaiting   RecommendationType = "high_priority_waiting"
	RecommendationBlockedTask           RecommendationType = "blocked_task"
	RecommendationNoDueDateHighPriority RecommendationType = "no_due_date_high_priority"
	RecommendationCriticalInTodo        RecommendationType = "critical_in_todo"
	RecommendationInProgressOverdue     RecommendationType = "in_progress_overdue"
	RecommendationMoveToDone            RecommendationType = "move_to_done"
	RecommendationUpcomingDeadline      RecommendationType = "upcoming_deadline"
)

var recommendationGlyphs = map[RecommendationType]string{
	RecommendationOverdue:               "⏰",
	RecommendationDueSoon:               "⚡",
	RecommendationCriticalPriority:      "🚨",
	RecommendationHighPriorityWaiting:   "⚠️",
	RecommendationBlockedTask:           "🚧",
	RecommendationNoDueDateHighPriority: "📅",
	RecommendationCriticalInTodo:        "🔥",
	RecommendationInProgressOverdue:     "💥",
	RecommendationMoveToDone:            "✅",
	RecommendationUpcomingDeadline:      "📋",
}

// Glyph returns the icon for known types and "" otherwise.
func (t RecommendationType) Glyph() string {
	return recommendationGlyphs[t]
}

// Label humanizes the type: "due_soon" becomes "DUE SOON".
func (t RecommendationType) Label() string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(string(t)), "_", " "))
}

// Recommendation is one server-computed alert about a card.
type Recommendation struct {
	CardTitle string             `json:"card_title"`
	Reason    string             `json:"reason"`
	Severity  Severity           `json:"severity,omitempty"`
	Type      RecommendationType `json:"type"`
	Action    string             `json:"action,omitempty"`
}
