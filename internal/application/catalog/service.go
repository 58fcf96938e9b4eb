package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfswap/shelfswap/internal/domain/item"
)

// Service handles the item catalog.
type Service struct {
	itemRepo item.Repository
	logger   zerolog.Logger
}

// NewService creates a catalog service.
func NewService(itemRepo item.Repository, logger zerolog.Logger) *Service {
	return &Service{
		itemRepo: itemRepo,
		logger:   logger.With().Str("service", "catalog").Logger(),
	}
}

// AddItem puts a new book on the owner's shelf. Coordinates are
// optional; without them the item is excluded from proximity browse.
func (s *Service) AddItem(ctx context.Context, ownerID uuid.UUID, title, author, description string, lat, lon *float64) (*item.Item, error) {
	it, err := item.New(ownerID, title, author, description)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		it.SetLocation(*lat, *lon)
	}
	if err := s.itemRepo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.logger.Info().
		Str("item_id", it.ItemID.String()).
		Str("owner_id", ownerID.String()).
		Msg("item added to catalog")
	return it, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, itemID uuid.UUID) (*item.Item, error) {
	it, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup item: %w", err)
	}
	if it == nil {
		return nil, item.ErrNotFound
	}
	return it, nil
}

// ListByOwner returns one actor's shelf.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*item.Item, error) {
	return s.itemRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// ListNearby returns available items within radiusKm of the given
// point, nearest first.
func (s *Service) ListNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*item.Item, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 || radiusKm <= 0 {
		return nil, fmt.Errorf("invalid search area")
	}
	return s.itemRepo.ListNearby(ctx, lat, lon, radiusKm, limit)
}
