package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind names the negotiation event a notification describes.
type Kind string

const (
	KindRequestCreated   Kind = "REQUEST_CREATED"
	KindRequestAccepted  Kind = "REQUEST_ACCEPTED"
	KindRequestRejected  Kind = "REQUEST_REJECTED"
	KindRequestCanceled  Kind = "REQUEST_CANCELED"
	KindCounterOffered   Kind = "COUNTER_OFFERED"
	KindLocationProposed Kind = "LOCATION_PROPOSED"
	KindAwaitingPeer     Kind = "AWAITING_PEER"
	KindExchangeComplete Kind = "EXCHANGE_COMPLETE"
)

// Status represents the notification lifecycle.
type Status string

const (
	StatusUnread Status = "UNREAD"
	StatusRead   Status = "READ"
)

var (
	ErrNotFound    = errors.New("notification not found")
	ErrAlreadyRead = errors.New("notification already read")
)

// Notification is one durable message addressed to a single actor.
// Delivery beyond the store write (SSE push) is best effort.
type Notification struct {
	ID             int64      `json:"id"`
	NotificationID uuid.UUID  `json:"notificationId"`
	RecipientID    uuid.UUID  `json:"recipientId"`
	Kind           Kind       `json:"kind"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	NegotiationID  *uuid.UUID `json:"negotiationId,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// New creates an unread notification.
func New(recipientID uuid.UUID, kind Kind, title, body string, negotiationID *uuid.UUID) *Notification {
	return &Notification{
		NotificationID: uuid.New(),
		RecipientID:    recipientID,
		Kind:           kind,
		Title:          title,
		Body:           body,
		NegotiationID:  negotiationID,
		Status:         StatusUnread,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkRead transitions the notification to read.
func (n *Notification) MarkRead() error {
	if n.Status == StatusRead {
		return ErrAlreadyRead
	}
	now := time.Now().UTC()
	n.Status = StatusRead
	n.ReadAt = &now
	return nil
}

// SSEClient represents an active SSE connection.
type SSEClient struct {
	ClientID    string
	UserID      uuid.UUID
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client for one authenticated user.
func NewSSEClient(clientID string, userID uuid.UUID) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
