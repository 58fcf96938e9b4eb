package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfswap/shelfswap/internal/domain/item"
	"github.com/shelfswap/shelfswap/internal/domain/negotiation"
)

// EffectDispatcher applies the side effects a transition produced.
// Dispatch runs after the authoritative store write and must never
// influence the outcome of the transition that produced the effects.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []negotiation.Effect)
}

// ConfirmationResult reports the confirmation flags after a confirm
// call, and whether that call completed the exchange.
type ConfirmationResult struct {
	RequesterConfirmed bool `json:"requesterConfirmed"`
	ReceiverConfirmed  bool `json:"receiverConfirmed"`
	Completed          bool `json:"completed"`
}

// Service drives the negotiation workflow. Every mutation goes through
// a conditional repository write; the service itself holds no locks
// and keeps no per-negotiation state, so any number of instances can
// run against the same store.
type Service struct {
	negotiationRepo negotiation.Repository
	itemRepo        item.Repository
	dispatcher      EffectDispatcher
	logger          zerolog.Logger
}

// NewService creates a negotiation service.
func NewService(negotiationRepo negotiation.Repository, itemRepo item.Repository, dispatcher EffectDispatcher, logger zerolog.Logger) *Service {
	return &Service{
		negotiationRepo: negotiationRepo,
		itemRepo:        itemRepo,
		dispatcher:      dispatcher,
		logger:          logger.With().Str("service", "negotiation").Logger(),
	}
}

// CreateRequest opens a pending negotiation for the given item. The
// item's owner becomes the receiver; requesting your own item is not
// permitted.
func (s *Service) CreateRequest(ctx context.Context, requestedItemID, requesterID uuid.UUID) (*negotiation.Negotiation, error) {
	it, err := s.itemRepo.GetByID(ctx, requestedItemID)
	if err != nil {
		return nil, fmt.Errorf("lookup requested item: %w", err)
	}
	if it == nil {
		return nil, item.ErrNotFound
	}
	if it.OwnerID == requesterID {
		return nil, negotiation.ErrInvalidOperation
	}
	if it.Availability != item.AvailabilityAvailable {
		return nil, negotiation.ErrInvalidOperation
	}

	n, err := negotiation.New(requestedItemID, requesterID, it.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := s.negotiationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create negotiation: %w", err)
	}
	s.recordTransition(ctx, n.NegotiationID, requesterID, "", negotiation.StatusPending)

	s.logger.Info().
		Str("negotiation_id", n.NegotiationID.String()).
		Str("requester_id", requesterID.String()).
		Str("receiver_id", n.ReceiverID.String()).
		Msg("negotiation requested")

	s.dispatcher.Dispatch(ctx, []negotiation.Effect{
		negotiation.NotifyEffect(n.NegotiationID, n.ReceiverID, requesterID, negotiation.EventRequested),
	})
	return n, nil
}

// Transition applies an accept, reject, or cancel decision. Accept and
// reject belong to the receiver; cancel is open to either party. The
// status write is a compare-and-set on the previously observed status,
// so two racing decisions resolve to exactly one winner.
func (s *Service) Transition(ctx context.Context, negotiationID, actorID uuid.UUID, action negotiation.Action) (*negotiation.Negotiation, error) {
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	target, ok := negotiation.TargetFor(action)
	if !ok {
		return nil, negotiation.ErrValidation
	}
	if err := n.AuthorizeAction(actorID, action); err != nil {
		return nil, err
	}
	if !n.CanTransitionTo(target) {
		return nil, negotiation.ErrInvalidTransition
	}

	updated, err := s.negotiationRepo.UpdateStatus(ctx, negotiationID, n.Status, target, nil)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if updated == nil {
		// Lost a race: the status moved since we read it.
		return nil, negotiation.ErrInvalidTransition
	}
	s.recordTransition(ctx, negotiationID, actorID, n.Status, target)

	s.logger.Info().
		Str("negotiation_id", negotiationID.String()).
		Str("actor_id", actorID.String()).
		Str("action", string(action)).
		Str("status", string(updated.Status)).
		Msg("negotiation transitioned")

	effects := make([]negotiation.Effect, 0, 4)
	switch action {
	case negotiation.ActionAccept:
		effects = append(effects,
			negotiation.ProvisionSessionEffect(negotiationID, updated.RequesterID, updated.ReceiverID),
			negotiation.MarkPendingEffect(negotiationID, updated.RequestedItemID),
			negotiation.NotifyEffect(negotiationID, updated.RequesterID, actorID, negotiation.EventAccepted),
		)
		if updated.CounterItemID != nil {
			effects = append(effects, negotiation.MarkPendingEffect(negotiationID, *updated.CounterItemID))
		}
	case negotiation.ActionReject:
		effects = append(effects,
			negotiation.NotifyEffect(negotiationID, updated.RequesterID, actorID, negotiation.EventRejected),
		)
	case negotiation.ActionCancel:
		// Canceling an accepted exchange puts the reserved books back on
		// their shelves.
		if n.Status == negotiation.StatusAccepted {
			effects = append(effects, negotiation.ReleaseItemEffect(negotiationID, updated.RequestedItemID))
			if updated.CounterItemID != nil {
				effects = append(effects, negotiation.ReleaseItemEffect(negotiationID, *updated.CounterItemID))
			}
		}
		effects = append(effects,
			negotiation.NotifyEffect(negotiationID, updated.Counterpart(actorID), actorID, negotiation.EventCanceled),
		)
	}
	s.dispatcher.Dispatch(ctx, effects)
	return updated, nil
}

// OfferItem registers the counter-offered item. Only the receiver may
// offer, and only an item from the requester's shelf. The assignment
// is a set-if-null conditional write: under concurrency exactly one
// call succeeds and every other caller sees ErrAlreadySet.
func (s *Service) OfferItem(ctx context.Context, negotiationID, actorID, itemID uuid.UUID) (*negotiation.Negotiation, error) {
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	role, ok := n.RoleOf(actorID)
	if !ok || role != negotiation.RoleReceiver {
		return nil, negotiation.ErrUnauthorized
	}
	if n.Status != negotiation.StatusPending && n.Status != negotiation.StatusAccepted {
		return nil, negotiation.ErrInvalidTransition
	}
	if n.CounterItemID != nil {
		return nil, negotiation.ErrAlreadySet
	}

	it, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup counter item: %w", err)
	}
	if it == nil {
		return nil, item.ErrNotFound
	}
	if it.OwnerID != n.RequesterID {
		return nil, negotiation.ErrUnauthorized
	}
	if it.Availability != item.AvailabilityAvailable {
		return nil, negotiation.ErrInvalidTransition
	}

	updated, err := s.negotiationRepo.SetCounterItem(ctx, negotiationID, itemID)
	if err != nil {
		return nil, fmt.Errorf("set counter item: %w", err)
	}
	if updated == nil {
		fresh, err := s.getNegotiation(ctx, negotiationID)
		if err != nil {
			return nil, err
		}
		if fresh.CounterItemID != nil {
			return nil, negotiation.ErrAlreadySet
		}
		return nil, negotiation.ErrInvalidTransition
	}

	s.logger.Info().
		Str("negotiation_id", negotiationID.String()).
		Str("item_id", itemID.String()).
		Msg("counter item offered")

	effects := []negotiation.Effect{
		negotiation.NotifyEffect(negotiationID, updated.RequesterID, actorID, negotiation.EventCounterOffered),
	}
	// While the negotiation is still pending the item is only reserved
	// once the receiver accepts.
	if updated.Status == negotiation.StatusAccepted {
		effects = append(effects, negotiation.MarkPendingEffect(negotiationID, itemID))
	}
	s.dispatcher.Dispatch(ctx, effects)
	return updated, nil
}

// ProposeLocation sets or overwrites the meeting point. The location
// stays mutable until both parties have confirmed; afterwards it is
// locked for good.
func (s *Service) ProposeLocation(ctx context.Context, negotiationID, actorID uuid.UUID, mp negotiation.MeetingPoint) (*negotiation.Negotiation, error) {
	if err := mp.Validate(); err != nil {
		return nil, err
	}
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if _, ok := n.RoleOf(actorID); !ok {
		return nil, negotiation.ErrUnauthorized
	}
	if n.Status != negotiation.StatusAccepted || n.CounterItemID == nil || n.BothConfirmed() {
		return nil, negotiation.ErrInvalidTransition
	}

	updated, err := s.negotiationRepo.SetMeetingPoint(ctx, negotiationID, mp)
	if err != nil {
		return nil, fmt.Errorf("set meeting point: %w", err)
	}
	if updated == nil {
		return nil, negotiation.ErrInvalidTransition
	}

	s.logger.Info().
		Str("negotiation_id", negotiationID.String()).
		Str("place", mp.Name).
		Msg("meeting point proposed")

	s.dispatcher.Dispatch(ctx, []negotiation.Effect{
		negotiation.NotifyEffect(negotiationID, updated.Counterpart(actorID), actorID, negotiation.EventLocationProposed),
	})
	return updated, nil
}

// Confirm records one actor's confirmation, exactly once per actor.
// The flag write is a set-if-false conditional update; when it makes
// both flags true the caller races its peer on the ACCEPTED→COMPLETED
// status CAS, and only the winner emits the completion effects
// (inventory sync and notifications), so they fire exactly once.
func (s *Service) Confirm(ctx context.Context, negotiationID, actorID uuid.UUID) (*ConfirmationResult, error) {
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	role, ok := n.RoleOf(actorID)
	if !ok {
		return nil, negotiation.ErrUnauthorized
	}
	if n.Status != negotiation.StatusAccepted || n.MeetingPoint == nil {
		return nil, negotiation.ErrInvalidTransition
	}
	if n.Confirmed(role) {
		return nil, negotiation.ErrAlreadySet
	}

	updated, err := s.negotiationRepo.SetConfirmed(ctx, negotiationID, role)
	if err != nil {
		return nil, fmt.Errorf("set confirmation: %w", err)
	}
	if updated == nil {
		fresh, err := s.getNegotiation(ctx, negotiationID)
		if err != nil {
			return nil, err
		}
		if fresh.Confirmed(role) {
			return nil, negotiation.ErrAlreadySet
		}
		return nil, negotiation.ErrInvalidTransition
	}

	s.logger.Info().
		Str("negotiation_id", negotiationID.String()).
		Str("role", string(role)).
		Msg("exchange confirmed by one party")

	if !updated.BothConfirmed() {
		s.dispatcher.Dispatch(ctx, []negotiation.Effect{
			negotiation.NotifyEffect(negotiationID, updated.Counterpart(actorID), actorID, negotiation.EventAwaitingPeer),
		})
		return &ConfirmationResult{
			RequesterConfirmed: updated.RequesterConfirmed,
			ReceiverConfirmed:  updated.ReceiverConfirmed,
		}, nil
	}

	now := time.Now().UTC()
	completed, err := s.negotiationRepo.UpdateStatus(ctx, negotiationID, negotiation.StatusAccepted, negotiation.StatusCompleted, &now)
	if err != nil {
		return nil, fmt.Errorf("complete negotiation: %w", err)
	}
	if completed == nil {
		// The status moved under us. Usually the peer's confirm won the
		// completion CAS and already emitted the completion effects, but
		// a cancel is also legal from ACCEPTED, so report whatever the
		// store actually holds.
		fresh, err := s.getNegotiation(ctx, negotiationID)
		if err != nil {
			return nil, err
		}
		return &ConfirmationResult{
			RequesterConfirmed: fresh.RequesterConfirmed,
			ReceiverConfirmed:  fresh.ReceiverConfirmed,
			Completed:          fresh.Status == negotiation.StatusCompleted,
		}, nil
	}
	s.recordTransition(ctx, negotiationID, actorID, negotiation.StatusAccepted, negotiation.StatusCompleted)

	s.logger.Info().
		Str("negotiation_id", negotiationID.String()).
		Msg("negotiation completed")

	effects := []negotiation.Effect{
		negotiation.MarkExchangedEffect(negotiationID, completed.RequestedItemID),
	}
	if completed.CounterItemID != nil {
		effects = append(effects, negotiation.MarkExchangedEffect(negotiationID, *completed.CounterItemID))
	}
	effects = append(effects,
		negotiation.NotifyEffect(negotiationID, completed.Counterpart(actorID), actorID, negotiation.EventCompleted),
	)
	s.dispatcher.Dispatch(ctx, effects)

	return &ConfirmationResult{
		RequesterConfirmed: completed.RequesterConfirmed,
		ReceiverConfirmed:  completed.ReceiverConfirmed,
		Completed:          true,
	}, nil
}

// Get returns one negotiation visible to the given actor.
func (s *Service) Get(ctx context.Context, negotiationID, actorID uuid.UUID) (*negotiation.Negotiation, error) {
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if _, ok := n.RoleOf(actorID); !ok {
		return nil, negotiation.ErrUnauthorized
	}
	return n, nil
}

// ListByActor returns the actor's negotiations, optionally filtered by
// status.
func (s *Service) ListByActor(ctx context.Context, actorID uuid.UUID, status *negotiation.Status, limit, offset int) ([]*negotiation.Negotiation, error) {
	return s.negotiationRepo.ListByActor(ctx, actorID, status, limit, offset)
}

// History returns the recorded transitions of a negotiation.
func (s *Service) History(ctx context.Context, negotiationID, actorID uuid.UUID) ([]*negotiation.Transition, error) {
	n, err := s.getNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if _, ok := n.RoleOf(actorID); !ok {
		return nil, negotiation.ErrUnauthorized
	}
	return s.negotiationRepo.ListTransitions(ctx, negotiationID)
}

func (s *Service) getNegotiation(ctx context.Context, negotiationID uuid.UUID) (*negotiation.Negotiation, error) {
	n, err := s.negotiationRepo.GetByID(ctx, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("lookup negotiation: %w", err)
	}
	if n == nil {
		return nil, negotiation.ErrNotFound
	}
	return n, nil
}

// recordTransition appends to the history log. The log is advisory;
// a write failure must not fail the transition it describes.
func (s *Service) recordTransition(ctx context.Context, negotiationID, actorID uuid.UUID, from, to negotiation.Status) {
	t := &negotiation.Transition{
		NegotiationID: negotiationID,
		ActorID:       actorID,
		FromStatus:    from,
		ToStatus:      to,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.negotiationRepo.RecordTransition(ctx, t); err != nil {
		s.logger.Warn().Err(err).
			Str("negotiation_id", negotiationID.String()).
			Msg("failed to record transition history")
	}
}
