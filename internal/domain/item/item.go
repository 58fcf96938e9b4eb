package item

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Availability represents whether an item can still be traded.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityPending   Availability = "PENDING"
	AvailabilityExchanged Availability = "EXCHANGED"
)

var ErrNotFound = errors.New("item not found")

// Item is one book on an actor's shelf.
type Item struct {
	ID           int64        `json:"id"`
	ItemID       uuid.UUID    `json:"itemId"`
	OwnerID      uuid.UUID    `json:"ownerId"`
	Title        string       `json:"title"`
	Author       string       `json:"author"`
	Description  string       `json:"description,omitempty"`
	Availability Availability `json:"availability"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// New creates an available item owned by the given actor.
func New(ownerID uuid.UUID, title, author, description string) (*Item, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	now := time.Now().UTC()
	return &Item{
		ItemID:       uuid.New(),
		OwnerID:      ownerID,
		Title:        title,
		Author:       author,
		Description:  description,
		Availability: AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsExchanged reports whether the item has already been traded away.
func (i *Item) IsExchanged() bool {
	return i.Availability == AvailabilityExchanged
}

// SetLocation attaches pickup coordinates used for proximity browsing.
func (i *Item) SetLocation(lat, lon float64) {
	i.Latitude = &lat
	i.Longitude = &lon
}
