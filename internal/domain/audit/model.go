// Package audit defines the PII-free session lifecycle event log. Events
// carry ids and counts only; no attribute value, name, or text ever reaches
// an event, so the log can be persisted and shipped to external sinks.
package audit

import "time"

// EventType classifies a session lifecycle event.
type EventType string

const (
	EventSessionCreated EventType = "session_created"
	EventTurnProcessed  EventType = "turn_processed"
	EventSessionEvicted EventType = "session_evicted"
	EventSessionErased  EventType = "session_erased"
)

// Event is one audit log entry.
type Event struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"` // uuid, assigned by the writer
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Persons   int       `json:"persons"` // live person records after the event
	Turns     int       `json:"turns"`   // session turn counter after the event
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions filters event queries.
type ListOptions struct {
	SessionID string
	Type      EventType
	Limit     int
}
