package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,SSEHub

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for notification persistence.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// SSEHub defines the interface for realtime fan-out of notifications.
type SSEHub interface {
	Register(client *SSEClient)
	Unregister(clientID string)
	BroadcastToUser(userID uuid.UUID, message *SSEMessage)
}
