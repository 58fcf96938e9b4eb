package negotiation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines negotiation persistence. The conditional methods
// are the only mutation path: each one succeeds only if the stored
// record still matches the expected prior state, so concurrent callers
// are serialized by the store rather than by any in-process lock. A
// nil record with a nil error means the condition did not hold at
// write time.
type Repository interface {
	Create(ctx context.Context, n *Negotiation) error
	GetByID(ctx context.Context, negotiationID uuid.UUID) (*Negotiation, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, status *Status, limit, offset int) ([]*Negotiation, error)

	// UpdateStatus moves the negotiation from one status to another,
	// succeeding only if the stored status still equals from.
	UpdateStatus(ctx context.Context, negotiationID uuid.UUID, from, to Status, agreedAt *time.Time) (*Negotiation, error)

	// SetCounterItem assigns the counter-offered item, succeeding only
	// if the stored counter item is still null.
	SetCounterItem(ctx context.Context, negotiationID, itemID uuid.UUID) (*Negotiation, error)

	// SetMeetingPoint writes the full meeting point, succeeding only
	// while the negotiation is accepted and not yet bilaterally
	// confirmed.
	SetMeetingPoint(ctx context.Context, negotiationID uuid.UUID, mp MeetingPoint) (*Negotiation, error)

	// SetConfirmed flips one actor's confirmation flag, succeeding only
	// if the negotiation is accepted and that flag is still false.
	SetConfirmed(ctx context.Context, negotiationID uuid.UUID, role Role) (*Negotiation, error)

	RecordTransition(ctx context.Context, t *Transition) error
	ListTransitions(ctx context.Context, negotiationID uuid.UUID) ([]*Transition, error)
}
