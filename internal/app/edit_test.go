package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evanschultz/boardwalk/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestEditCardKeepsUnchangedFields(t *testing.T) {
	board := twoListBoard()
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	board.Lists[0].Cards[0].Description = "keep me"
	board.Lists[0].Cards[0].Priority = domain.PriorityHigh
	board.Lists[0].Cards[0].DueDate = &due
	api := newFakeAPI(board)
	svc := NewService(api, nil)

	card, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "card1", Status: strPtr("in-progress")})
	if err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	p := api.patches["card1"]
	if p.Title != "one" || p.Description != "keep me" || p.Priority != domain.PriorityHigh || p.Status != domain.StatusInProgress {
		t.Fatalf("unexpected patch %#v", p)
	}
	if p.DueDate.Action != DueDateSet || !p.DueDate.Date.Equal(due) {
		t.Fatalf("expected due date resent, got %#v", p.DueDate)
	}
	if card.Status != domain.StatusInProgress {
		t.Fatalf("unexpected returned card %#v", card)
	}
}

func TestEditCardDueDateOptions(t *testing.T) {
	api := newFakeAPI(twoListBoard())
	svc := NewService(api, nil)

	if _, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "card1", Due: strPtr("2026-05-02")}); err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	if got := api.patches["card1"].DueDate; got.Action != DueDateSet || domain.FormatDueDate(&got.Date) != "2026-05-02" {
		t.Fatalf("unexpected due change %#v", got)
	}

	if _, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "card1", ClearDue: true}); err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	if got := api.patches["card1"].DueDate; got.Action != DueDateClear {
		t.Fatalf("expected clear, got %#v", got)
	}

	_, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "card1", ClearDue: true, Due: strPtr("2026-05-02")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for conflicting due flags, got %v", err)
	}
	if _, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "card1", Due: strPtr("soon")}); !errors.Is(err, domain.ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}

func TestEditCardUnknownCard(t *testing.T) {
	api := newFakeAPI(twoListBoard())
	svc := NewService(api, nil)
	if _, err := svc.EditCard(context.Background(), EditCardInput{BoardID: "b1", CardID: "nope"}); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	if len(api.patches) != 0 {
		t.Fatal("expected no update request")
	}
}

func TestParseDueInput(t *testing.T) {
	for _, raw := range []string{"", " ", "-"} {
		if due, err := ParseDueInput(raw); err != nil || due != nil {
			t.Fatalf("ParseDueInput(%q) = %v, %v", raw, due, err)
		}
	}
	due, err := ParseDueInput("2026-01-02")
	if err != nil || domain.FormatDueDate(due) != "2026-01-02" {
		t.Fatalf("ParseDueInput() = %v, %v", due, err)
	}
	if _, err := ParseDueInput("02/01/2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
