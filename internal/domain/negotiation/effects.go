package negotiation

import "github.com/google/uuid"

// EffectKind discriminates pending domain effects.
type EffectKind string

const (
	EffectNotify           EffectKind = "NOTIFY"
	EffectProvisionSession EffectKind = "PROVISION_SESSION"
	EffectMarkPending      EffectKind = "MARK_PENDING"
	EffectReleaseItem      EffectKind = "RELEASE_ITEM"
	EffectMarkExchanged    EffectKind = "MARK_EXCHANGED"
)

// Event names what happened to a negotiation, for notification text.
type Event string

const (
	EventRequested        Event = "REQUESTED"
	EventAccepted         Event = "ACCEPTED"
	EventRejected         Event = "REJECTED"
	EventCanceled         Event = "CANCELED"
	EventCounterOffered   Event = "COUNTER_OFFERED"
	EventLocationProposed Event = "LOCATION_PROPOSED"
	EventAwaitingPeer     Event = "AWAITING_PEER"
	EventCompleted        Event = "COMPLETED"
)

// Effect is a pending side effect produced by a successful transition.
// The transactional core only records effects; a dispatcher applies
// them after the authoritative store write, so a dispatch failure can
// never undo a transition.
type Effect struct {
	Kind          EffectKind
	NegotiationID uuid.UUID

	// NOTIFY
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	Event       Event

	// PROVISION_SESSION
	PairA uuid.UUID
	PairB uuid.UUID

	// MARK_PENDING, RELEASE_ITEM, MARK_EXCHANGED
	ItemID uuid.UUID
}

// NotifyEffect builds a notification effect for one recipient. actorID
// is the party whose action triggered the event; its display name is
// resolved at dispatch time.
func NotifyEffect(negotiationID, recipientID, actorID uuid.UUID, event Event) Effect {
	return Effect{
		Kind:          EffectNotify,
		NegotiationID: negotiationID,
		RecipientID:   recipientID,
		ActorID:       actorID,
		Event:         event,
	}
}

// ProvisionSessionEffect builds a chat provisioning effect for the
// unordered actor pair.
func ProvisionSessionEffect(negotiationID, a, b uuid.UUID) Effect {
	return Effect{
		Kind:          EffectProvisionSession,
		NegotiationID: negotiationID,
		PairA:         a,
		PairB:         b,
	}
}

// MarkPendingEffect reserves an item for an accepted exchange.
func MarkPendingEffect(negotiationID, itemID uuid.UUID) Effect {
	return Effect{
		Kind:          EffectMarkPending,
		NegotiationID: negotiationID,
		ItemID:        itemID,
	}
}

// ReleaseItemEffect puts a reserved item back on the shelf after a
// cancel.
func ReleaseItemEffect(negotiationID, itemID uuid.UUID) Effect {
	return Effect{
		Kind:          EffectReleaseItem,
		NegotiationID: negotiationID,
		ItemID:        itemID,
	}
}

// MarkExchangedEffect builds an inventory synchronization effect.
func MarkExchangedEffect(negotiationID, itemID uuid.UUID) Effect {
	return Effect{
		Kind:          EffectMarkExchanged,
		NegotiationID: negotiationID,
		ItemID:        itemID,
	}
}
