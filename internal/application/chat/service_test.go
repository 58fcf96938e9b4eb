package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfswap/shelfswap/internal/domain/chat"
)

type pairKey struct {
	a uuid.UUID
	b uuid.UUID
}

// fakeChatRepo enforces the one-conversation-per-pair constraint the
// real store provides through its unique index.
type fakeChatRepo struct {
	mu            sync.Mutex
	byPair        map[pairKey]*chat.Conversation
	byID          map[uuid.UUID]*chat.Conversation
	messagesByCID map[uuid.UUID][]*chat.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		byPair:        make(map[pairKey]*chat.Conversation),
		byID:          make(map[uuid.UUID]*chat.Conversation),
		messagesByCID: make(map[uuid.UUID][]*chat.Message),
	}
}

func (r *fakeChatRepo) GetOrCreate(_ context.Context, c *chat.Conversation) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{a: c.ParticipantA, b: c.ParticipantB}
	if existing, ok := r.byPair[key]; ok {
		return existing, nil
	}
	r.byPair[key] = c
	r.byID[c.ConversationID] = c
	return c, nil
}

func (r *fakeChatRepo) GetByID(_ context.Context, conversationID uuid.UUID) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[conversationID], nil
}

func (r *fakeChatRepo) ListByParticipant(_ context.Context, actorID uuid.UUID, _, _ int) ([]*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(actorID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(_ context.Context, m *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messagesByCID[m.ConversationID] = append(r.messagesByCID[m.ConversationID], m)
	return nil
}

func (r *fakeChatRepo) ListMessages(_ context.Context, conversationID uuid.UUID, _, _ int) ([]*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messagesByCID[conversationID], nil
}

func TestProvisionIsIdempotent(t *testing.T) {
	svc := NewService(newFakeChatRepo(), zerolog.Nop())
	a := uuid.New()
	b := uuid.New()
	negID := uuid.New()

	first, err := svc.Provision(context.Background(), a, b, &negID)
	require.NoError(t, err)

	// Repeating with swapped argument order still lands on the same
	// conversation.
	second, err := svc.Provision(context.Background(), b, a, &negID)
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestProvisionRejectsSelfConversation(t *testing.T) {
	svc := NewService(newFakeChatRepo(), zerolog.Nop())
	actor := uuid.New()
	_, err := svc.Provision(context.Background(), actor, actor, nil)
	assert.Error(t, err)
}

func TestPostAndListMessages(t *testing.T) {
	svc := NewService(newFakeChatRepo(), zerolog.Nop())
	a := uuid.New()
	b := uuid.New()

	c, err := svc.Provision(context.Background(), a, b, nil)
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), c.ConversationID, a, "is the Le Guin still available?")
	require.NoError(t, err)
	_, err = svc.PostMessage(context.Background(), c.ConversationID, b, "it is, want to meet saturday?")
	require.NoError(t, err)

	messages, err := svc.ListMessages(context.Background(), c.ConversationID, a, 100, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, a, messages[0].SenderID)
	assert.Equal(t, b, messages[1].SenderID)
}

func TestPostMessageByStranger(t *testing.T) {
	svc := NewService(newFakeChatRepo(), zerolog.Nop())
	a := uuid.New()
	b := uuid.New()

	c, err := svc.Provision(context.Background(), a, b, nil)
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), c.ConversationID, uuid.New(), "hello")
	assert.ErrorIs(t, err, chat.ErrNotParticipant)
}

func TestGetUnknownConversation(t *testing.T) {
	svc := NewService(newFakeChatRepo(), zerolog.Nop())
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, chat.ErrNotFound)
}
