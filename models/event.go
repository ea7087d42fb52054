// api/models/event.go
package models

import (
	"strconv"
	"time"
)

// AnonymousUser is the userId recorded for events captured before a login.
const AnonymousUser = "anonymous"

// Viewport is the browser viewport size at capture time.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// InteractionEvent is one recorded user action. Events are immutable once
// stored; `action` and `details` are legacy aliases of `eventType` and
// `eventData` kept in sync so consumers written against either naming see
// the same values.
type InteractionEvent struct {
	ID            int64          `json:"id"`
	ClientEventID string         `json:"clientEventId,omitempty"`
	SessionID     string         `json:"sessionId"`
	UserID        string         `json:"userId"`
	EventType     string         `json:"eventType"`
	Action        string         `json:"action,omitempty"`
	EventData     map[string]any `json:"eventData,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     string         `json:"timestamp"`
	URL           string         `json:"url,omitempty"`
	UserAgent     string         `json:"userAgent,omitempty"`
	IPAddress     string         `json:"ip,omitempty"`
	Viewport      *Viewport      `json:"viewport,omitempty"`
}

// Type returns the event classification, falling back to the legacy
// `action` field when `eventType` is absent.
func (ev *InteractionEvent) Type() string {
	if ev.EventType != "" {
		return ev.EventType
	}
	return ev.Action
}

// Data returns the event attributes, falling back to the legacy `details`
// field when `eventData` is absent. May return nil.
func (ev *InteractionEvent) Data() map[string]any {
	if ev.EventData != nil {
		return ev.EventData
	}
	return ev.Details
}

// Time parses the event timestamp. The boolean is false when the stored
// timestamp is absent or unparseable; such events are excluded from
// date-bounded queries but still returned by unranged ones.
func (ev *InteractionEvent) Time() (time.Time, bool) {
	return ParseTimestamp(ev.Timestamp)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp string in any of the accepted
// layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CanonicalID renders a loosely-typed JSON identifier (string or number) as
// its canonical string form, so "42" and 42 compare equal after ingestion.
func CanonicalID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		// JSON numbers decode as float64; integral ids print without a
		// fractional part.
		if id == float64(int64(id)) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}
