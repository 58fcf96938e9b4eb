package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shelfswap/shelfswap/internal/domain/item"
	itemmocks "github.com/shelfswap/shelfswap/internal/domain/item/mocks"
)

func TestAddItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := itemmocks.NewMockRepository(ctrl)
	svc := NewService(repo, zerolog.Nop())

	ownerID := uuid.New()
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	it, err := svc.AddItem(context.Background(), ownerID, "The Dispossessed", "Ursula K. Le Guin", "good condition", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ownerID, it.OwnerID)
	assert.Equal(t, item.AvailabilityAvailable, it.Availability)
	assert.Nil(t, it.Latitude)
}

func TestAddItemWithLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := itemmocks.NewMockRepository(ctrl)
	svc := NewService(repo, zerolog.Nop())

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	lat, lon := 48.137, 11.575
	it, err := svc.AddItem(context.Background(), uuid.New(), "Solaris", "Stanislaw Lem", "", &lat, &lon)
	require.NoError(t, err)
	require.NotNil(t, it.Latitude)
	assert.Equal(t, lat, *it.Latitude)
}

func TestAddItemRequiresTitle(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := itemmocks.NewMockRepository(ctrl)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.AddItem(context.Background(), uuid.New(), "", "", "", nil, nil)
	assert.Error(t, err)
}

func TestGetUnknownItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := itemmocks.NewMockRepository(ctrl)
	svc := NewService(repo, zerolog.Nop())

	itemID := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), itemID).Return(nil, nil)

	_, err := svc.Get(context.Background(), itemID)
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestListNearbyValidatesArea(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := itemmocks.NewMockRepository(ctrl)
	svc := NewService(repo, zerolog.Nop())

	cases := []struct {
		lat, lon, radius float64
	}{
		{91, 0, 5},
		{0, 181, 5},
		{0, 0, 0},
		{0, 0, -1},
	}
	for _, c := range cases {
		_, err := svc.ListNearby(context.Background(), c.lat, c.lon, c.radius, 10)
		assert.Error(t, err, "lat=%v lon=%v radius=%v", c.lat, c.lon, c.radius)
	}
}
