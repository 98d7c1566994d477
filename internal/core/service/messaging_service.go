package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	"github.com/toylibrary/lending-platform/internal/core/ports"
)

// MessagingService implements host/borrower direct messaging.
type MessagingService struct {
	messages ports.MessageRepository
	users    ports.UserRepository
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewMessagingService(messages ports.MessageRepository, users ports.UserRepository, notifier ports.Notifier, log zerolog.Logger) *MessagingService {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	return &MessagingService{messages: messages, users: users, notifier: notifier, log: log}
}

// Send delivers a direct message and relays a notification to the recipient.
func (s *MessagingService) Send(ctx context.Context, input ports.SendMessageInput) (*domain.Message, error) {
	if input.Body == "" {
		return nil, fmt.Errorf("send message: empty body")
	}
	sender, err := s.users.FindByID(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, input.RecipientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		LibraryID:   input.LibraryID,
		Body:        input.Body,
		SentAt:      now,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.notifier.Notify(domain.Notification{
		RecipientID: input.RecipientID,
		LibraryID:   input.LibraryID,
		Severity:    domain.SeverityInfo,
		Body:        fmt.Sprintf("new message from %s", sender.FullName),
		CreatedAt:   now,
	})
	return m, nil
}

func (s *MessagingService) Conversation(ctx context.Context, userID, otherID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.Conversation(ctx, userID, otherID, limit)
}

func (s *MessagingService) MarkRead(ctx context.Context, userID, senderID string) error {
	return s.messages.MarkRead(ctx, userID, senderID)
}

func (s *MessagingService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}
