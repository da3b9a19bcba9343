package domain

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SubmitEvent is a single form submission.
type SubmitEvent struct {
	ID               string
	defaultPrevented atomic.Bool
}

func NewSubmitEvent() *SubmitEvent {
	return &SubmitEvent{ID: uuid.NewString()}
}

// PreventDefault suppresses the form's default action.
func (e *SubmitEvent) PreventDefault() {
	e.defaultPrevented.Store(true)
}

func (e *SubmitEvent) DefaultPrevented() bool {
	return e.defaultPrevented.Load()
}
