package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfswap/shelfswap/internal/domain/negotiation"
)

const negotiationColumns = `id, negotiation_id, requested_item_id, counter_item_id, requester_id, receiver_id, status,
	meet_latitude, meet_longitude, meet_name, meet_address, meet_place_ref,
	requester_confirmed, receiver_confirmed, proposed_at, agreed_at, updated_at`

// NegotiationRepository implements negotiation.Repository. Every
// conditional method is a single UPDATE whose WHERE clause encodes the
// expected prior state; Postgres row-level atomicity is what makes the
// exactly-once contracts hold across concurrent stateless instances.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) *NegotiationRepository {
	return &NegotiationRepository{pool: pool}
}

func (r *NegotiationRepository) Create(ctx context.Context, n *negotiation.Negotiation) error {
	var lat, lon *float64
	var name, address, placeRef *string
	if mp := n.MeetingPoint; mp != nil {
		lat, lon = &mp.Latitude, &mp.Longitude
		name, address, placeRef = &mp.Name, &mp.Address, mp.PlaceRef
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO negotiations
		(negotiation_id, requested_item_id, counter_item_id, requester_id, receiver_id, status,
		 meet_latitude, meet_longitude, meet_name, meet_address, meet_place_ref,
		 requester_confirmed, receiver_confirmed, proposed_at, agreed_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, n.NegotiationID, n.RequestedItemID, n.CounterItemID, n.RequesterID, n.ReceiverID, n.Status,
		lat, lon, name, address, placeRef,
		n.RequesterConfirmed, n.ReceiverConfirmed, n.ProposedAt, n.AgreedAt, n.UpdatedAt)
	return err
}

func (r *NegotiationRepository) GetByID(ctx context.Context, negotiationID uuid.UUID) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations WHERE negotiation_id=$1
	`, negotiationID)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) ListByActor(ctx context.Context, actorID uuid.UUID, status *negotiation.Status, limit, offset int) ([]*negotiation.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + ` FROM negotiations WHERE (requester_id=$1 OR receiver_id=$1)`
	args := []interface{}{actorID}
	if status != nil {
		query += ` AND status=$2 ORDER BY proposed_at DESC LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY proposed_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*negotiation.Negotiation
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NegotiationRepository) UpdateStatus(ctx context.Context, negotiationID uuid.UUID, from, to negotiation.Status, agreedAt *time.Time) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE negotiations
		SET status=$3, agreed_at=COALESCE($4, agreed_at), updated_at=now()
		WHERE negotiation_id=$1 AND status=$2
		RETURNING `+negotiationColumns+`
	`, negotiationID, from, to, agreedAt)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) SetCounterItem(ctx context.Context, negotiationID, itemID uuid.UUID) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE negotiations
		SET counter_item_id=$2, updated_at=now()
		WHERE negotiation_id=$1 AND counter_item_id IS NULL AND status IN ('PENDING','ACCEPTED')
		RETURNING `+negotiationColumns+`
	`, negotiationID, itemID)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) SetMeetingPoint(ctx context.Context, negotiationID uuid.UUID, mp negotiation.MeetingPoint) (*negotiation.Negotiation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE negotiations
		SET meet_latitude=$2, meet_longitude=$3, meet_name=$4, meet_address=$5, meet_place_ref=$6, updated_at=now()
		WHERE negotiation_id=$1 AND status='ACCEPTED' AND NOT (requester_confirmed AND receiver_confirmed)
		RETURNING `+negotiationColumns+`
	`, negotiationID, mp.Latitude, mp.Longitude, mp.Name, mp.Address, mp.PlaceRef)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) SetConfirmed(ctx context.Context, negotiationID uuid.UUID, role negotiation.Role) (*negotiation.Negotiation, error) {
	column := "receiver_confirmed"
	if role == negotiation.RoleRequester {
		column = "requester_confirmed"
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE negotiations
		SET `+column+`=true, updated_at=now()
		WHERE negotiation_id=$1 AND status='ACCEPTED' AND `+column+`=false
		RETURNING `+negotiationColumns+`
	`, negotiationID)
	return scanNegotiation(row)
}

func (r *NegotiationRepository) RecordTransition(ctx context.Context, t *negotiation.Transition) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO negotiation_transitions (negotiation_id, actor_id, from_status, to_status, occurred_at)
		VALUES ($1,$2,$3,$4,$5)
	`, t.NegotiationID, t.ActorID, string(t.FromStatus), string(t.ToStatus), t.OccurredAt)
	return err
}

func (r *NegotiationRepository) ListTransitions(ctx context.Context, negotiationID uuid.UUID) ([]*negotiation.Transition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, negotiation_id, actor_id, from_status, to_status, occurred_at
		FROM negotiation_transitions WHERE negotiation_id=$1 ORDER BY occurred_at ASC, id ASC
	`, negotiationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*negotiation.Transition
	for rows.Next() {
		t := &negotiation.Transition{}
		var from, to string
		if err := rows.Scan(&t.ID, &t.NegotiationID, &t.ActorID, &from, &to, &t.OccurredAt); err != nil {
			return nil, err
		}
		t.FromStatus = negotiation.Status(from)
		t.ToStatus = negotiation.Status(to)
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanNegotiation(row pgx.Row) (*negotiation.Negotiation, error) {
	n := &negotiation.Negotiation{}
	var lat, lon *float64
	var name, address, placeRef *string
	err := row.Scan(
		&n.ID, &n.NegotiationID, &n.RequestedItemID, &n.CounterItemID, &n.RequesterID, &n.ReceiverID, &n.Status,
		&lat, &lon, &name, &address, &placeRef,
		&n.RequesterConfirmed, &n.ReceiverConfirmed, &n.ProposedAt, &n.AgreedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil && name != nil && address != nil {
		n.MeetingPoint = &negotiation.MeetingPoint{
			Latitude:  *lat,
			Longitude: *lon,
			Name:      *name,
			Address:   *address,
			PlaceRef:  placeRef,
		}
	}
	return n, nil
}
