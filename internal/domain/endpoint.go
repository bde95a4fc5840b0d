package domain

import "time"

// EndpointConfig is a project's registration of a chat workflow webhook.
// At most one active row exists per project; the dispatch path only ever
// reads these, configuration management lives elsewhere.
type EndpointConfig struct {
	ID            string
	ProjectID     string
	WebhookURL    string
	ChannelLabel  string
	TeamLabel     string
	IsActive      bool
	EnabledEvents map[EventType]bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventEnabled reports whether the endpoint wants notifications for the
// given event type. Types absent from the map default to enabled.
func (c *EndpointConfig) EventEnabled(t EventType) bool {
	if c.EnabledEvents == nil {
		return true
	}
	enabled, ok := c.EnabledEvents[t]
	if !ok {
		return true
	}
	return enabled
}
