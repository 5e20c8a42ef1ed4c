package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPassageEnter EventType = "passage_enter"
	EventPassageJump  EventType = "passage_jump"
	EventChoice       EventType = "choice"
	EventInput        EventType = "input"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// PassageEvent reports entry into a passage, either directly or via a jump.
type PassageEvent struct {
	EventBase
	PassageID string `json:"passage_id"`
	From      string `json:"from,omitempty"`
}

// ChoiceEvent reports a choice being taken.
type ChoiceEvent struct {
	EventBase
	PassageID string `json:"passage_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Target    string `json:"target"`
}

// InputEvent reports submitted input values.
type InputEvent struct {
	EventBase
	PassageID string   `json:"passage_id"`
	Names     []string `json:"names"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnPassageEnter func(context.Context, *PassageEvent)
	OnJump         func(context.Context, *PassageEvent)
	OnChoice       func(context.Context, *ChoiceEvent)
	OnInput        func(context.Context, *InputEvent)
}
