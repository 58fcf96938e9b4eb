package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appChat "github.com/shelfswap/shelfswap/internal/application/chat"
	appNotification "github.com/shelfswap/shelfswap/internal/application/notification"
	"github.com/shelfswap/shelfswap/internal/domain/item"
	"github.com/shelfswap/shelfswap/internal/domain/negotiation"
	"github.com/shelfswap/shelfswap/internal/domain/notification"
	"github.com/shelfswap/shelfswap/internal/domain/user"
)

// Dispatcher applies the pending effects a negotiation transition
// produced: notifications, chat provisioning, and inventory sync.
// Every application is best effort. The transition that produced the
// effects has already been committed, so failures here are logged and
// dropped, never propagated.
type Dispatcher struct {
	userRepo        user.Repository
	itemRepo        item.Repository
	notificationSvc *appNotification.Service
	chatSvc         *appChat.Service
	logger          zerolog.Logger
}

// NewDispatcher creates an effect dispatcher.
func NewDispatcher(
	userRepo user.Repository,
	itemRepo item.Repository,
	notificationSvc *appNotification.Service,
	chatSvc *appChat.Service,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		userRepo:        userRepo,
		itemRepo:        itemRepo,
		notificationSvc: notificationSvc,
		chatSvc:         chatSvc,
		logger:          logger.With().Str("service", "dispatch").Logger(),
	}
}

// Dispatch applies each effect in order.
func (d *Dispatcher) Dispatch(ctx context.Context, effects []negotiation.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case negotiation.EffectNotify:
			d.notify(ctx, e)
		case negotiation.EffectProvisionSession:
			d.provisionSession(ctx, e)
		case negotiation.EffectMarkPending:
			d.markPending(ctx, e)
		case negotiation.EffectReleaseItem:
			d.releaseItem(ctx, e)
		case negotiation.EffectMarkExchanged:
			d.markExchanged(ctx, e)
		default:
			d.logger.Warn().Str("kind", string(e.Kind)).Msg("unknown effect kind")
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, e negotiation.Effect) {
	kind, title, body := composeNotification(e.Event, d.displayName(ctx, e.ActorID))
	negID := e.NegotiationID
	if _, err := d.notificationSvc.Enqueue(ctx, e.RecipientID, kind, title, body, &negID); err != nil {
		d.logger.Error().Err(err).
			Str("negotiation_id", e.NegotiationID.String()).
			Str("recipient_id", e.RecipientID.String()).
			Msg("failed to enqueue notification")
	}
}

func (d *Dispatcher) provisionSession(ctx context.Context, e negotiation.Effect) {
	negID := e.NegotiationID
	if _, err := d.chatSvc.Provision(ctx, e.PairA, e.PairB, &negID); err != nil {
		d.logger.Error().Err(err).
			Str("negotiation_id", e.NegotiationID.String()).
			Msg("failed to provision chat session")
	}
}

func (d *Dispatcher) markPending(ctx context.Context, e negotiation.Effect) {
	if err := d.itemRepo.MarkPending(ctx, e.ItemID); err != nil {
		d.logger.Error().Err(err).
			Str("negotiation_id", e.NegotiationID.String()).
			Str("item_id", e.ItemID.String()).
			Msg("failed to reserve item")
	}
}

func (d *Dispatcher) releaseItem(ctx context.Context, e negotiation.Effect) {
	if err := d.itemRepo.Release(ctx, e.ItemID); err != nil {
		d.logger.Error().Err(err).
			Str("negotiation_id", e.NegotiationID.String()).
			Str("item_id", e.ItemID.String()).
			Msg("failed to release item")
	}
}

func (d *Dispatcher) markExchanged(ctx context.Context, e negotiation.Effect) {
	if err := d.itemRepo.MarkExchanged(ctx, e.ItemID); err != nil {
		d.logger.Error().Err(err).
			Str("negotiation_id", e.NegotiationID.String()).
			Str("item_id", e.ItemID.String()).
			Msg("failed to mark item exchanged")
	}
}

// displayName resolves the acting party's name for notification text,
// falling back to a neutral label when the lookup fails.
func (d *Dispatcher) displayName(ctx context.Context, actorID uuid.UUID) string {
	u, err := d.userRepo.GetByID(ctx, actorID)
	if err != nil || u == nil {
		return "Another reader"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func composeNotification(event negotiation.Event, actorName string) (notification.Kind, string, string) {
	switch event {
	case negotiation.EventRequested:
		return notification.KindRequestCreated, "New exchange request",
			fmt.Sprintf("%s wants one of your books.", actorName)
	case negotiation.EventAccepted:
		return notification.KindRequestAccepted, "Request accepted",
			fmt.Sprintf("%s accepted your request. You can chat now.", actorName)
	case negotiation.EventRejected:
		return notification.KindRequestRejected, "Request rejected",
			fmt.Sprintf("%s turned down your request.", actorName)
	case negotiation.EventCanceled:
		return notification.KindRequestCanceled, "Exchange canceled",
			fmt.Sprintf("%s canceled the exchange.", actorName)
	case negotiation.EventCounterOffered:
		return notification.KindCounterOffered, "Counter-offer received",
			fmt.Sprintf("%s picked a book from your shelf to trade back.", actorName)
	case negotiation.EventLocationProposed:
		return notification.KindLocationProposed, "Meeting point proposed",
			fmt.Sprintf("%s proposed a place to meet.", actorName)
	case negotiation.EventAwaitingPeer:
		return notification.KindAwaitingPeer, "Waiting on you",
			fmt.Sprintf("%s confirmed the exchange. Confirm to finish it.", actorName)
	case negotiation.EventCompleted:
		return notification.KindExchangeComplete, "Exchange complete",
			fmt.Sprintf("%s confirmed too. The exchange is final.", actorName)
	default:
		return notification.Kind(string(event)), "Exchange update",
			fmt.Sprintf("%s updated the exchange.", actorName)
	}
}
