// Package plugin discovers and runs external hook programs that react to workout events.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/repcount/internal/exercise"
)

// Event names a point in a workout that hooks can subscribe to.
type Event string

const (
	EventSessionStart Event = "session_start"
	EventRep          Event = "rep"
	EventSessionEnd   Event = "session_end"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []Event         `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the manifest lists ev.
func (m Manifest) Subscribes(ev Event) bool {
	return slices.Contains(m.Events, ev)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Event     Event               `json:"event"`
	Exercise  exercise.Kind       `json:"exercise"`
	SessionID string              `json:"session_id"`
	Rep       *exercise.RepRecord `json:"rep,omitempty"`
	Summary   *exercise.Summary   `json:"summary,omitempty"`
	Config    json.RawMessage     `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
