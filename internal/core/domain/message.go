package domain

import "time"

// Message is a direct message between two users of the same library.
type Message struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	SenderID    string     `json:"sender_id" bson:"sender_id"`
	RecipientID string     `json:"recipient_id" bson:"recipient_id"`
	LibraryID   string     `json:"library_id" bson:"library_id"`
	Body        string     `json:"body" bson:"body"`
	SentAt      time.Time  `json:"sent_at" bson:"sent_at"`
	ReadAt      *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
}
