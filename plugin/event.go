package plugin

import (
	"encoding/json"
	"fmt"
)

// Host event types the router reacts to.
const (
	EventCommandExecuted  = "command.executed"
	EventTUISessionSelect = "tui.session.select"
	EventSessionIdle      = "session.idle"
)

// Event is one host bus event as published on the host's event stream.
type Event struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// NewEvent builds an event with JSON-encoded properties.
func NewEvent(eventType string, properties any) (Event, error) {
	raw, err := json.Marshal(properties)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s properties: %w", eventType, err)
	}
	return Event{Type: eventType, Properties: raw}, nil
}

// CommandExecuted is the payload of a command.executed event.
type CommandExecuted struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionID"`
	Arguments string `json:"arguments"`
	MessageID string `json:"messageID,omitempty"`
}

// SessionRef is the payload of session-scoped events such as
// tui.session.select and session.idle.
type SessionRef struct {
	SessionID string `json:"sessionID"`
}

func decodeProperties(ev Event, v any) error {
	if len(ev.Properties) == 0 {
		return fmt.Errorf("%s event has no properties", ev.Type)
	}
	if err := json.Unmarshal(ev.Properties, v); err != nil {
		return fmt.Errorf("decode %s properties: %w", ev.Type, err)
	}
	return nil
}
