package item

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines item persistence.
type Repository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, itemID uuid.UUID) (*Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Item, error)
	ListNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*Item, error)

	// MarkPending reserves an available item for an accepted exchange.
	// Items that are not AVAILABLE are left untouched.
	MarkPending(ctx context.Context, itemID uuid.UUID) error

	// Release puts a PENDING item back to AVAILABLE. Exchanged items
	// stay exchanged.
	Release(ctx context.Context, itemID uuid.UUID) error

	// MarkExchanged flips availability to EXCHANGED. Calling it for an
	// item that is already exchanged is a no-op, so completion can be
	// replayed safely.
	MarkExchanged(ctx context.Context, itemID uuid.UUID) error
}
