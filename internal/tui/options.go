package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

// CardFieldConfig toggles the optional card row fields.
type CardFieldConfig struct {
	ShowPriority    bool
	ShowStatus      bool
	ShowDueDate     bool
	ShowDescription bool
}

// Option configures a Model.
type Option func(*Model)

// DefaultCardFieldConfig shows every field.
func DefaultCardFieldConfig() CardFieldConfig {
	return CardFieldConfig{
		ShowPriority:    true,
		ShowStatus:      true,
		ShowDueDate:     true,
		ShowDescription: true,
	}
}

func WithCardFieldConfig(cfg CardFieldConfig) Option {
	return func(m *Model) {
		m.cardFields = cfg
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithInitialBoard opens boardID as soon as the board list loads.
func WithInitialBoard(boardID string) Option {
	return func(m *Model) {
		m.pendingBoardID = strings.TrimSpace(boardID)
	}
}

// WithGreeting sets the name shown in the picker header.
func WithGreeting(name string) Option {
	return func(m *Model) {
		m.greeting = strings.TrimSpace(name)
	}
}

// WithDueSoonWindow highlights cards due within d. Zero disables it.
func WithDueSoonWindow(d time.Duration) Option {
	return func(m *Model) {
		if d >= 0 {
			m.dueSoon = d
		}
	}
}

func WithConfirmQuit(on bool) Option {
	return func(m *Model) {
		m.confirmQuit = on
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithClock replaces the time source used for due-date highlights.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
