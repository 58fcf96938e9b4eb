package negotiation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shelfswap/shelfswap/internal/domain/item"
	"github.com/shelfswap/shelfswap/internal/domain/negotiation"
	negotiationmocks "github.com/shelfswap/shelfswap/internal/domain/negotiation/mocks"
)

func pendingNegotiation(requester, receiver uuid.UUID) *negotiation.Negotiation {
	return &negotiation.Negotiation{
		NegotiationID:   uuid.New(),
		RequestedItemID: uuid.New(),
		RequesterID:     requester,
		ReceiverID:      receiver,
		Status:          negotiation.StatusPending,
		ProposedAt:      time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestTransitionLostStatusRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := negotiationmocks.NewMockRepository(ctrl)
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, newFakeItemRepo(), dispatcher, zerolog.Nop())

	requester := uuid.New()
	receiver := uuid.New()
	n := pendingNegotiation(requester, receiver)

	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(n, nil)
	// A peer decision landed between read and write; the CAS refuses.
	repo.EXPECT().
		UpdateStatus(gomock.Any(), n.NegotiationID, negotiation.StatusPending, negotiation.StatusAccepted, nil).
		Return(nil, nil)

	_, err := svc.Transition(context.Background(), n.NegotiationID, receiver, negotiation.ActionAccept)
	assert.ErrorIs(t, err, negotiation.ErrInvalidTransition)
	assert.Empty(t, dispatcher.lastEffects())
}

func TestOfferItemLostRaceReportsAlreadySet(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := negotiationmocks.NewMockRepository(ctrl)
	itemRepo := newFakeItemRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, itemRepo, dispatcher, zerolog.Nop())

	requester := uuid.New()
	receiver := uuid.New()
	n := pendingNegotiation(requester, receiver)
	counter, err := item.New(requester, "Solaris", "Stanislaw Lem", "")
	require.NoError(t, err)
	itemRepo.add(counter)

	// The first read still shows no counter item, the conditional write
	// fails, and the re-read reveals the peer's assignment.
	taken := *n
	takenID := uuid.New()
	taken.CounterItemID = &takenID

	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(n, nil)
	repo.EXPECT().SetCounterItem(gomock.Any(), n.NegotiationID, counter.ItemID).Return(nil, nil)
	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(&taken, nil)

	_, err = svc.OfferItem(context.Background(), n.NegotiationID, receiver, counter.ItemID)
	assert.ErrorIs(t, err, negotiation.ErrAlreadySet)
	assert.Empty(t, dispatcher.lastEffects())
}

func TestConfirmLoserOfCompletionRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := negotiationmocks.NewMockRepository(ctrl)
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, newFakeItemRepo(), dispatcher, zerolog.Nop())

	requester := uuid.New()
	receiver := uuid.New()
	n := pendingNegotiation(requester, receiver)
	n.Status = negotiation.StatusAccepted
	n.MeetingPoint = &negotiation.MeetingPoint{Latitude: 1, Longitude: 1, Name: "Park", Address: "Main St 1"}
	n.ReceiverConfirmed = true

	confirmed := *n
	confirmed.RequesterConfirmed = true

	done := confirmed
	done.Status = negotiation.StatusCompleted

	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(n, nil)
	repo.EXPECT().SetConfirmed(gomock.Any(), n.NegotiationID, negotiation.RoleRequester).Return(&confirmed, nil)
	// The peer's confirm already moved the status to COMPLETED.
	repo.EXPECT().
		UpdateStatus(gomock.Any(), n.NegotiationID, negotiation.StatusAccepted, negotiation.StatusCompleted, gomock.Any()).
		Return(nil, nil)
	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(&done, nil)

	result, err := svc.Confirm(context.Background(), n.NegotiationID, requester)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	// The winner already emitted the completion effects; the loser must
	// not emit them again.
	assert.Empty(t, dispatcher.lastEffects())
}

func TestConfirmRacingCancelIsNotCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := negotiationmocks.NewMockRepository(ctrl)
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, newFakeItemRepo(), dispatcher, zerolog.Nop())

	requester := uuid.New()
	receiver := uuid.New()
	n := pendingNegotiation(requester, receiver)
	n.Status = negotiation.StatusAccepted
	n.MeetingPoint = &negotiation.MeetingPoint{Latitude: 1, Longitude: 1, Name: "Park", Address: "Main St 1"}
	n.ReceiverConfirmed = true

	confirmed := *n
	confirmed.RequesterConfirmed = true

	// A cancel lands between the flag write and the completion CAS. The
	// negotiation ends CANCELED, so the caller must not be told the
	// exchange completed.
	canceled := confirmed
	canceled.Status = negotiation.StatusCanceled

	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(n, nil)
	repo.EXPECT().SetConfirmed(gomock.Any(), n.NegotiationID, negotiation.RoleRequester).Return(&confirmed, nil)
	repo.EXPECT().
		UpdateStatus(gomock.Any(), n.NegotiationID, negotiation.StatusAccepted, negotiation.StatusCompleted, gomock.Any()).
		Return(nil, nil)
	repo.EXPECT().GetByID(gomock.Any(), n.NegotiationID).Return(&canceled, nil)

	result, err := svc.Confirm(context.Background(), n.NegotiationID, requester)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Empty(t, dispatcher.lastEffects())
}

func TestGetNegotiationStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := negotiationmocks.NewMockRepository(ctrl)
	svc := NewService(repo, newFakeItemRepo(), &recordingDispatcher{}, zerolog.Nop())

	negotiationID := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), negotiationID).Return(nil, assert.AnError)

	_, err := svc.Get(context.Background(), negotiationID, uuid.New())
	assert.ErrorIs(t, err, assert.AnError)
}
