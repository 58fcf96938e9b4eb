package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfswap/shelfswap/internal/domain/chat"
)

// Service handles chat conversations and messages.
type Service struct {
	chatRepo chat.Repository
	logger   zerolog.Logger
}

// NewService creates a chat service.
func NewService(chatRepo chat.Repository, logger zerolog.Logger) *Service {
	return &Service{
		chatRepo: chatRepo,
		logger:   logger.With().Str("service", "chat").Logger(),
	}
}

// Provision returns the conversation for the unordered actor pair,
// creating it if none exists. Safe to call any number of times for
// the same pair: the store's unique constraint guarantees a single
// conversation survives.
func (s *Service) Provision(ctx context.Context, actorA, actorB uuid.UUID, negotiationID *uuid.UUID) (*chat.Conversation, error) {
	c, err := chat.New(actorA, actorB, negotiationID)
	if err != nil {
		return nil, err
	}
	existing, err := s.chatRepo.GetOrCreate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("provision conversation: %w", err)
	}
	if existing.ConversationID == c.ConversationID {
		s.logger.Info().
			Str("conversation_id", existing.ConversationID.String()).
			Msg("conversation provisioned")
	}
	return existing, nil
}

// Get returns a conversation the actor participates in.
func (s *Service) Get(ctx context.Context, conversationID, actorID uuid.UUID) (*chat.Conversation, error) {
	c, err := s.chatRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if c == nil {
		return nil, chat.ErrNotFound
	}
	if !c.HasParticipant(actorID) {
		return nil, chat.ErrNotParticipant
	}
	return c, nil
}

// ListByParticipant returns the actor's conversations.
func (s *Service) ListByParticipant(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*chat.Conversation, error) {
	return s.chatRepo.ListByParticipant(ctx, actorID, limit, offset)
}

// PostMessage appends a message; the sender must be a participant.
func (s *Service) PostMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*chat.Message, error) {
	c, err := s.Get(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	m, err := chat.NewMessage(c.ConversationID, senderID, body)
	if err != nil {
		return nil, err
	}
	if err := s.chatRepo.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// ListMessages returns a conversation's messages, oldest first; the
// caller must be a participant.
func (s *Service) ListMessages(ctx context.Context, conversationID, actorID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	c, err := s.Get(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, c.ConversationID, limit, offset)
}
