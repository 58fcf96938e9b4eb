package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfswap/shelfswap/internal/domain/notification"
)

// Service handles notification persistence and realtime fan-out.
type Service struct {
	notificationRepo notification.Repository
	sseHub           notification.SSEHub
	logger           zerolog.Logger
}

// NewService creates a notification service.
func NewService(notificationRepo notification.Repository, sseHub notification.SSEHub, logger zerolog.Logger) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		sseHub:           sseHub,
		logger:           logger.With().Str("service", "notification").Logger(),
	}
}

// Enqueue persists a notification for one recipient and pushes it to
// any live SSE connection. The store write is the delivery guarantee;
// the push is opportunistic.
func (s *Service) Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, body string, negotiationID *uuid.UUID) (*notification.Notification, error) {
	n := notification.New(recipientID, kind, title, body, negotiationID)
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	data, err := json.Marshal(n)
	if err == nil {
		s.sseHub.BroadcastToUser(recipientID, notification.NewSSEMessage("notification", data))
	}

	s.logger.Debug().
		Str("notification_id", n.NotificationID.String()).
		Str("recipient_id", recipientID.String()).
		Str("kind", string(kind)).
		Msg("notification enqueued")
	return n, nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *Service) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	return s.notificationRepo.ListByRecipient(ctx, recipientID, unreadOnly, limit, offset)
}

// MarkRead marks one of the recipient's notifications as read.
func (s *Service) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*notification.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("lookup notification: %w", err)
	}
	if n == nil || n.RecipientID != recipientID {
		return nil, notification.ErrNotFound
	}
	updated, err := s.notificationRepo.MarkRead(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if updated == nil {
		return nil, notification.ErrAlreadyRead
	}
	return updated, nil
}

// CountUnread returns the recipient's unread count.
func (s *Service) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.notificationRepo.CountUnread(ctx, recipientID)
}
