package ports

import (
	"context"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// MessageRepository defines persistence for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	// Conversation returns the messages between the two users, oldest first.
	Conversation(ctx context.Context, userA, userB string, limit int) ([]*domain.Message, error)
	MarkRead(ctx context.Context, recipientID, senderID string) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

// SendMessageInput carries the parameters of a direct message.
type SendMessageInput struct {
	SenderID    string
	RecipientID string
	LibraryID   string
	Body        string
}

// MessagingService implements host/borrower direct messaging.
type MessagingService interface {
	Send(ctx context.Context, input SendMessageInput) (*domain.Message, error)
	Conversation(ctx context.Context, userID, otherID string, limit int) ([]*domain.Message, error)
	// MarkRead marks every message from senderID to userID as read.
	MarkRead(ctx context.Context, userID, senderID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}
