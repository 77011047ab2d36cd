// Package viewmodel holds the client-side page flow: enter a number, pick a
// depth, read the explanation. It keeps no server state and knows nothing of
// the frame state machine.
package viewmodel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"eip-explainer/internal/domain"
)

type View int

const (
	ViewInput View = iota
	ViewModeSelect
	ViewExplanation
)

func (v View) String() string {
	switch v {
	case ViewInput:
		return "input"
	case ViewModeSelect:
		return "mode-select"
	case ViewExplanation:
		return "explanation"
	}
	return "unknown"
}

var (
	ErrInvalidNumber = errors.New("viewmodel: EIP number must be a positive integer")
	ErrWrongView     = errors.New("viewmodel: action not available in current view")
)

// Model is not safe for concurrent use.
type Model struct {
	view   View
	number string
	mode   domain.Mode
}

func New() *Model {
	return &Model{view: ViewInput}
}

func (m *Model) View() View         { return m.view }
func (m *Model) Number() string     { return m.number }
func (m *Model) Mode() domain.Mode  { return m.mode }
func (m *Model) TopicTitle() string { return "EIP-" + m.number }

// Submit accepts an EIP number from the input view and moves to mode selection.
func (m *Model) Submit(number string) error {
	if m.view != ViewInput {
		return fmt.Errorf("%w: submit from %s", ErrWrongView, m.view)
	}
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}
	m.number = strconv.Itoa(n)
	m.mode = 0
	m.view = ViewModeSelect
	return nil
}

func (m *Model) SelectMode(mode domain.Mode) error {
	if m.view != ViewModeSelect {
		return fmt.Errorf("%w: select mode from %s", ErrWrongView, m.view)
	}
	if mode.Label() == "" {
		return fmt.Errorf("viewmodel: unknown mode %d", int(mode))
	}
	m.mode = mode
	m.view = ViewExplanation
	return nil
}

// Back steps one view towards the input. It is a no-op on the input view.
func (m *Model) Back() {
	switch m.view {
	case ViewExplanation:
		m.mode = 0
		m.view = ViewModeSelect
	case ViewModeSelect:
		m.number = ""
		m.view = ViewInput
	}
}
