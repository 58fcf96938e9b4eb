package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfswap/shelfswap/internal/domain/notification"
)

const notificationColumns = `id, notification_id, recipient_id, kind, title, body, negotiation_id, status, created_at, read_at`

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications
		(notification_id, recipient_id, kind, title, body, negotiation_id, status, created_at, read_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, n.NotificationID, n.RecipientID, n.Kind, n.Title, n.Body, n.NegotiationID, n.Status, n.CreatedAt, n.ReadAt)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, notificationID uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+` FROM notifications WHERE notification_id=$1
	`, notificationID)
	return scanNotification(row)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id=$1`
	if unreadOnly {
		query += ` AND status='UNREAD'`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the status conditionally; a nil result means the
// notification was already read or does not exist.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications SET status='READ', read_at=now()
		WHERE notification_id=$1 AND status='UNREAD'
		RETURNING `+notificationColumns+`
	`, notificationID)
	return scanNotification(row)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND status='UNREAD'
	`, recipientID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	n := &notification.Notification{}
	err := row.Scan(&n.ID, &n.NotificationID, &n.RecipientID, &n.Kind, &n.Title, &n.Body, &n.NegotiationID, &n.Status, &n.CreatedAt, &n.ReadAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}
