package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfswap/shelfswap/internal/domain/item"
)

const itemColumns = `id, item_id, owner_id, title, author, description, availability, latitude, longitude, created_at, updated_at`

// ItemRepository implements item.Repository.
type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) Create(ctx context.Context, i *item.Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO items
		(item_id, owner_id, title, author, description, availability, latitude, longitude, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, i.ItemID, i.OwnerID, i.Title, i.Author, i.Description, i.Availability, i.Latitude, i.Longitude, i.CreatedAt, i.UpdatedAt)
	return err
}

func (r *ItemRepository) GetByID(ctx context.Context, itemID uuid.UUID) (*item.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE item_id=$1`, itemID)
	return scanItem(row)
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*item.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM items WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListNearby orders available items by great-circle distance from the
// given point. Plain haversine in SQL; good enough at city scale
// without PostGIS.
func (r *ItemRepository) ListNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*item.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE availability='AVAILABLE' AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND 6371 * 2 * asin(sqrt(
				pow(sin(radians(latitude - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(latitude)) *
				pow(sin(radians(longitude - $2) / 2), 2)
			)) <= $3
		ORDER BY 6371 * 2 * asin(sqrt(
				pow(sin(radians(latitude - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(latitude)) *
				pow(sin(radians(longitude - $2) / 2), 2)
			)) ASC
		LIMIT $4
	`, lat, lon, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// MarkPending reserves an item only while it is still available, so a
// replayed accept or a second negotiation over the same item changes
// nothing.
func (r *ItemRepository) MarkPending(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE items SET availability='PENDING', updated_at=now()
		WHERE item_id=$1 AND availability='AVAILABLE'
	`, itemID)
	return err
}

// Release undoes a reservation. The PENDING guard keeps exchanged
// items off the shelf.
func (r *ItemRepository) Release(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE items SET availability='AVAILABLE', updated_at=now()
		WHERE item_id=$1 AND availability='PENDING'
	`, itemID)
	return err
}

// MarkExchanged is conditional on the current availability, so calling
// it again for an already exchanged item changes nothing.
func (r *ItemRepository) MarkExchanged(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE items SET availability='EXCHANGED', updated_at=now()
		WHERE item_id=$1 AND availability <> 'EXCHANGED'
	`, itemID)
	return err
}

func collectItems(rows pgx.Rows) ([]*item.Item, error) {
	var out []*item.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*item.Item, error) {
	i := &item.Item{}
	err := row.Scan(&i.ID, &i.ItemID, &i.OwnerID, &i.Title, &i.Author, &i.Description, &i.Availability, &i.Latitude, &i.Longitude, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}
