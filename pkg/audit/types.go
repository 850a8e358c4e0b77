package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of audited operation.
type Action string

const (
	ActionPanicButtonTriggered Action = "panic_button_triggered"

	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionSessionRevoked Action = "session_revoked"
)

// Event is a single immutable audit record. Events are created once and
// never mutated or deleted.
type Event struct {
	// ID is a unique identifier for this event
	ID string `json:"id"`

	// Action is the kind of operation that was audited
	Action Action `json:"action"`

	// Actor is the username of whoever triggered the event
	Actor string `json:"actor"`

	// Context contains action-specific information
	Context map[string]interface{} `json:"context,omitempty"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and the current time.
func NewEvent(action Action, actor string, context map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Context:   context,
		Timestamp: time.Now().UTC(),
	}
}
