package negotiation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents negotiation status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCanceled  Status = "CANCELED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// Action represents a gate decision on a negotiation.
type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
	ActionCancel Action = "CANCEL"
)

// Role identifies which side of the negotiation an actor is on.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleReceiver  Role = "RECEIVER"
)

var (
	ErrNotFound          = errors.New("negotiation not found")
	ErrUnauthorized      = errors.New("actor is not eligible for this operation")
	ErrInvalidTransition = errors.New("invalid negotiation transition")
	ErrInvalidOperation  = errors.New("operation not permitted")
	ErrAlreadySet        = errors.New("field already set")
	ErrValidation        = errors.New("invalid input")
)

// MeetingPoint is the agreed physical location for the exchange.
// All fields are written together; a negotiation either has a full
// meeting point or none at all.
type MeetingPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	PlaceRef  *string `json:"placeRef,omitempty"`
}

// Validate checks coordinate ranges and required display fields.
func (m MeetingPoint) Validate() error {
	if m.Latitude < -90 || m.Latitude > 90 {
		return ErrValidation
	}
	if m.Longitude < -180 || m.Longitude > 180 {
		return ErrValidation
	}
	if m.Name == "" || m.Address == "" {
		return ErrValidation
	}
	return nil
}

// Negotiation governs one proposed exchange between two actors. The
// requester asks for an item owned by the receiver; the receiver
// counter-offers an item from the requester's shelf.
type Negotiation struct {
	ID                 int64         `json:"id"`
	NegotiationID      uuid.UUID     `json:"negotiationId"`
	RequestedItemID    uuid.UUID     `json:"requestedItemId"`
	CounterItemID      *uuid.UUID    `json:"counterItemId,omitempty"`
	RequesterID        uuid.UUID     `json:"requesterId"`
	ReceiverID         uuid.UUID     `json:"receiverId"`
	Status             Status        `json:"status"`
	MeetingPoint       *MeetingPoint `json:"meetingPoint,omitempty"`
	RequesterConfirmed bool          `json:"requesterConfirmed"`
	ReceiverConfirmed  bool          `json:"receiverConfirmed"`
	ProposedAt         time.Time     `json:"proposedAt"`
	AgreedAt           *time.Time    `json:"agreedAt,omitempty"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// New creates a pending negotiation between two distinct actors.
func New(requestedItemID, requesterID, receiverID uuid.UUID) (*Negotiation, error) {
	if requesterID == receiverID {
		return nil, ErrValidation
	}
	now := time.Now().UTC()
	return &Negotiation{
		NegotiationID:   uuid.New(),
		RequestedItemID: requestedItemID,
		RequesterID:     requesterID,
		ReceiverID:      receiverID,
		Status:          StatusPending,
		ProposedAt:      now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo validates a status transition against the state graph.
func (n *Negotiation) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusRejected, StatusCanceled},
		StatusAccepted:  {StatusCanceled, StatusCompleted},
		StatusRejected:  {},
		StatusCanceled:  {},
		StatusCompleted: {},
	}
	for _, s := range transitions[n.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal.
func (n *Negotiation) IsTerminal() bool {
	return n.Status == StatusRejected || n.Status == StatusCanceled || n.Status == StatusCompleted
}

// RoleOf returns the actor's side of the negotiation, or false if the
// actor is not a participant.
func (n *Negotiation) RoleOf(actorID uuid.UUID) (Role, bool) {
	switch actorID {
	case n.RequesterID:
		return RoleRequester, true
	case n.ReceiverID:
		return RoleReceiver, true
	default:
		return "", false
	}
}

// Counterpart returns the other participant.
func (n *Negotiation) Counterpart(actorID uuid.UUID) uuid.UUID {
	if actorID == n.RequesterID {
		return n.ReceiverID
	}
	return n.RequesterID
}

// TargetFor maps a gate action to its target status.
func TargetFor(action Action) (Status, bool) {
	switch action {
	case ActionAccept:
		return StatusAccepted, true
	case ActionReject:
		return StatusRejected, true
	case ActionCancel:
		return StatusCanceled, true
	default:
		return "", false
	}
}

// AuthorizeAction checks which actor may perform a gate action:
// accept and reject belong to the receiver, cancel to either party.
func (n *Negotiation) AuthorizeAction(actorID uuid.UUID, action Action) error {
	role, ok := n.RoleOf(actorID)
	if !ok {
		return ErrUnauthorized
	}
	if action == ActionCancel {
		return nil
	}
	if role != RoleReceiver {
		return ErrUnauthorized
	}
	return nil
}

// Confirmed reports whether the given role has already confirmed.
func (n *Negotiation) Confirmed(role Role) bool {
	if role == RoleRequester {
		return n.RequesterConfirmed
	}
	return n.ReceiverConfirmed
}

// BothConfirmed reports bilateral confirmation.
func (n *Negotiation) BothConfirmed() bool {
	return n.RequesterConfirmed && n.ReceiverConfirmed
}

// LocationLocked reports whether the meeting point may no longer change.
func (n *Negotiation) LocationLocked() bool {
	return n.BothConfirmed() || n.IsTerminal()
}

// Transition is one recorded step of a negotiation's history.
type Transition struct {
	ID            int64     `json:"id"`
	NegotiationID uuid.UUID `json:"negotiationId"`
	ActorID       uuid.UUID `json:"actorId"`
	FromStatus    Status    `json:"fromStatus"`
	ToStatus      Status    `json:"toStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}
