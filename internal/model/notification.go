package model

import "time"

// Notification is the one entity this service owns. The id and created_at are
// assigned by the repository at creation and never change afterwards; read only
// ever flips from false to true.
type Notification struct {
	ID          string         `json:"id" bson:"_id,omitempty"`
	RecipientID string         `json:"recipient_id" bson:"recipient_id"`
	Type        Type           `json:"type" bson:"type"`
	Message     string         `json:"message" bson:"message"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Read        bool           `json:"read" bson:"read"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
}
