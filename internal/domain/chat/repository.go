package chat

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines conversation and message persistence.
type Repository interface {
	// GetOrCreate persists the conversation unless one already exists
	// for the same participant pair, and returns the surviving row.
	// Backed by a unique constraint on the normalized pair, so two
	// concurrent provisioning calls converge on one conversation.
	GetOrCreate(ctx context.Context, c *Conversation) (*Conversation, error)

	GetByID(ctx context.Context, conversationID uuid.UUID) (*Conversation, error)
	ListByParticipant(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Conversation, error)

	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
}
