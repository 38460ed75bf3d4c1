package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFormStart    EventType = "form_start"
	EventFormComplete EventType = "form_complete"
	EventPlaceholder  EventType = "placeholder"
	EventInstances    EventType = "instances"
	EventRowsCloned   EventType = "rows_cloned"
)

// PlaceholderOutcome describes what the dispatcher did with one placeholder.
type PlaceholderOutcome string

const (
	OutcomeResolved PlaceholderOutcome = "resolved"
	OutcomeRemoved  PlaceholderOutcome = "removed"
	OutcomeDeferred PlaceholderOutcome = "deferred"
	OutcomeFailed   PlaceholderOutcome = "failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FormID    string    `json:"form_id"`
}

// FormEvent marks the start or end of one form's generation.
type FormEvent struct {
	EventBase
	PageCount int           `json:"page_count,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Errors    int           `json:"errors,omitempty"`
}

// PlaceholderEvent reports a single dispatch decision.
type PlaceholderEvent struct {
	EventBase
	Placeholder string             `json:"placeholder"`
	Directive   string             `json:"directive"`
	Outcome     PlaceholderOutcome `json:"outcome"`
}

// InstancesEvent reports how many document instances a form needed.
type InstancesEvent struct {
	EventBase
	Instances int `json:"instances"`
	Groups    int `json:"groups"`
}

// RowsClonedEvent reports table growth by the row cloner.
type RowsClonedEvent struct {
	EventBase
	Rows int `json:"rows"`
}

// MergeHooks defines callbacks for engine observability.
type MergeHooks struct {
	OnFormStart    func(context.Context, *FormEvent)
	OnFormComplete func(context.Context, *FormEvent)
	OnPlaceholder  func(context.Context, *PlaceholderEvent)
	OnInstances    func(context.Context, *InstancesEvent)
	OnRowsCloned   func(context.Context, *RowsClonedEvent)
}
