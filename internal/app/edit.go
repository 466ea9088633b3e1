package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/boardwalk/internal/domain"
)

// EditCardInput is a partial card update. Nil fields keep the card's current
// value. ClearDue and Due are mutually exclusive.
type EditCardInput struct {
	BoardID     string
	CardID      string
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	Due         *string
	ClearDue    bool
}

// EditCard fetches the board, fills unchanged fields from the current card,
// and sends the full update.
func (s *Service) EditCard(ctx context.Context, in EditCardInput) (domain.Card, error) {
	if in.Due != nil && in.ClearDue {
		return domain.Card{}, fmt.Errorf("%w: due and clear due are mutually exclusive", ErrInvalidInput)
	}
	board, err := s.GetBoard(ctx, in.BoardID)
	if err != nil {
		return domain.Card{}, err
	}
	cardID := strings.TrimSpace(in.CardID)
	li, ci, ok := board.FindCard(cardID)
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	card := board.Lists[li].Cards[ci]

	update := UpdateCardInput{
		CardID:      card.ID,
		Title:       card.Title,
		Description: card.Description,
		Priority:    card.Priority.OrDefault(),
		Status:      card.Status.OrDefault(),
		DueDate:     DueDateFrom(card.DueDate),
	}
	if in.Title != nil {
		update.Title = *in.Title
	}
	if in.Description != nil {
		update.Description = *in.Description
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return domain.Card{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		update.Priority = p
	}
	if in.Status != nil {
		st, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return domain.Card{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		update.Status = st
	}
	switch {
	case in.ClearDue:
		update.DueDate = ClearDueDate()
	case in.Due != nil:
		due, err := ParseDueInput(*in.Due)
		if err != nil {
			return domain.Card{}, err
		}
		update.DueDate = DueDateFrom(due)
	}

	if err := s.UpdateCard(ctx, update); err != nil {
		return domain.Card{}, err
	}
	card.Title = strings.TrimSpace(update.Title)
	card.Description = strings.TrimSpace(update.Description)
	card.Priority = update.Priority
	card.Status = update.Status
	card.DueDate = nil
	if update.DueDate.Action == DueDateSet {
		due := update.DueDate.Date
		card.DueDate = &due
	}
	return card, nil
}

// ParseDueInput reads a user-entered due date. Blank and "-" mean none.
func ParseDueInput(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil, nil
	}
	due, err := domain.ParseDueDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &due, nil
}
