package chat

import (
	"bytes"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("conversation not found")
	ErrNotParticipant = errors.New("actor is not a participant of this conversation")
	ErrEmptyBody      = errors.New("message body is required")
)

// Conversation is the shared channel between two actors. Participants
// are stored in normalized order so the unordered pair maps to exactly
// one row, which is what makes provisioning idempotent.
type Conversation struct {
	ID             int64      `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	ParticipantA   uuid.UUID  `json:"participantA"`
	ParticipantB   uuid.UUID  `json:"participantB"`
	NegotiationID  *uuid.UUID `json:"negotiationId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NormalizePair orders two actor ids canonically. It is symmetric:
// NormalizePair(a, b) == NormalizePair(b, a).
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// New creates a conversation for the unordered actor pair.
func New(a, b uuid.UUID, negotiationID *uuid.UUID) (*Conversation, error) {
	if a == b {
		return nil, errors.New("conversation requires two distinct participants")
	}
	pa, pb := NormalizePair(a, b)
	return &Conversation{
		ConversationID: uuid.New(),
		ParticipantA:   pa,
		ParticipantB:   pb,
		NegotiationID:  negotiationID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// HasParticipant reports whether the actor belongs to the conversation.
func (c *Conversation) HasParticipant(actorID uuid.UUID) bool {
	return c.ParticipantA == actorID || c.ParticipantB == actorID
}

// Message is one chat message inside a conversation.
type Message struct {
	ID             int64     `json:"id"`
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sentAt"`
}

// NewMessage creates a message from the given sender.
func NewMessage(conversationID, senderID uuid.UUID, body string) (*Message, error) {
	if body == "" {
		return nil, ErrEmptyBody
	}
	return &Message{
		MessageID:      uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		SentAt:         time.Now().UTC(),
	}, nil
}
