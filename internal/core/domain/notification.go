package domain

import "time"

// NotificationSeverity tags a notification for presentation.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeveritySuccess NotificationSeverity = "success"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is an ephemeral message produced by a store mutation and
// relayed to its recipient. Delivery is fire-and-forget: a failed relay is
// logged, never surfaced to the request that triggered it.
type Notification struct {
	ID          string               `json:"id" bson:"_id,omitempty"`
	RecipientID string               `json:"recipient_id" bson:"recipient_id"`
	LibraryID   string               `json:"library_id,omitempty" bson:"library_id,omitempty"`
	Severity    NotificationSeverity `json:"severity" bson:"severity"`
	Body        string               `json:"body" bson:"body"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	ReadAt      *time.Time           `json:"read_at,omitempty" bson:"read_at,omitempty"`
}
