package ports

import (
	"context"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// Notifier relays a notification to its recipient. Implementations must not
// block the caller beyond a bounded enqueue; delivery is best-effort.
type Notifier interface {
	Notify(n domain.Notification)
}

// NotificationRepository persists relayed notifications so clients can fetch
// what they missed.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, recipientID string) error
}

// NopNotifier discards notifications. Used in tests and as the default when
// no relay is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(domain.Notification) {}
