package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfswap/shelfswap/internal/domain/chat"
)

const conversationColumns = `id, conversation_id, participant_a, participant_b, negotiation_id, created_at`

// ChatRepository implements chat.Repository.
type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// GetOrCreate inserts the conversation unless the normalized pair
// already has one; the unique constraint plus ON CONFLICT DO NOTHING
// makes concurrent provisioning converge on a single row.
func (r *ChatRepository) GetOrCreate(ctx context.Context, c *chat.Conversation) (*chat.Conversation, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (conversation_id, participant_a, participant_b, negotiation_id, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (participant_a, participant_b) DO NOTHING
	`, c.ConversationID, c.ParticipantA, c.ParticipantB, c.NegotiationID, c.CreatedAt)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE participant_a=$1 AND participant_b=$2
	`, c.ParticipantA, c.ParticipantB)
	return scanConversation(row)
}

func (r *ChatRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*chat.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE conversation_id=$1
	`, conversationID)
	return scanConversation(row)
}

func (r *ChatRepository) ListByParticipant(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*chat.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_a=$1 OR participant_b=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, actorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*chat.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *chat.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (message_id, conversation_id, sender_id, body, sent_at)
		VALUES ($1,$2,$3,$4,$5)
	`, m.MessageID, m.ConversationID, m.SenderID, m.Body, m.SentAt)
	return err
}

func (r *ChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, conversation_id, sender_id, body, sent_at
		FROM messages WHERE conversation_id=$1 ORDER BY sent_at ASC, id ASC LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*chat.Message
	for rows.Next() {
		m := &chat.Message{}
		if err := rows.Scan(&m.ID, &m.MessageID, &m.ConversationID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	c := &chat.Conversation{}
	err := row.Scan(&c.ID, &c.ConversationID, &c.ParticipantA, &c.ParticipantB, &c.NegotiationID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
