package client

import "time"

// Notification mirrors the wire shape the REST and push surfaces emit.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        string         `json:"type"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Read        bool           `json:"read"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Event is the one message type the push stream carries.
type Event struct {
	Type         string       `json:"type"`
	Notification Notification `json:"notification"`
}
