package ui

import (
	"time"

	"foxgrep/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for animations
type tickMsg time.Time

// pagerDoneMsg contains the result of a jump-to-file pager run
type pagerDoneMsg struct {
	path string
	err  error
}
