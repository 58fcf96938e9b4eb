package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfswap/shelfswap/internal/domain/item"
	"github.com/shelfswap/shelfswap/internal/domain/negotiation"
)

// respondNegotiationError maps domain errors to HTTP responses.
func respondNegotiationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, negotiation.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "negotiation not found")
	case errors.Is(err, item.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "item not found")
	case errors.Is(err, negotiation.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "actor is not allowed to perform this action")
	case errors.Is(err, negotiation.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, negotiation.ErrAlreadySet):
		respondError(w, http.StatusConflict, "ALREADY_SET", err.Error())
	case errors.Is(err, negotiation.ErrInvalidOperation):
		respondError(w, http.StatusBadRequest, "INVALID_OPERATION", err.Error())
	case errors.Is(err, negotiation.ErrValidation):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

type createNegotiationRequest struct {
	ItemID string `json:"itemId" validate:"required,uuid4"`
}

func (s *Server) createNegotiation(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	var req createNegotiationRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid item id")
		return
	}
	n, err := s.negotiationSvc.CreateRequest(r.Context(), itemID, au.UserID)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) listNegotiations(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)

	var status *negotiation.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := negotiation.Status(v)
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid status filter")
			return
		}
		status = &st
	}

	list, err := s.negotiationSvc.ListByActor(r.Context(), au.UserID, status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to list negotiations")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"negotiations": list})
}

func (s *Server) getNegotiation(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	n, err := s.negotiationSvc.Get(r.Context(), negotiationID, au.UserID)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (s *Server) getNegotiationHistory(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	transitions, err := s.negotiationSvc.History(r.Context(), negotiationID, au.UserID)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"transitions": transitions})
}

func (s *Server) acceptNegotiation(w http.ResponseWriter, r *http.Request) {
	s.transitionNegotiation(w, r, negotiation.ActionAccept)
}

func (s *Server) rejectNegotiation(w http.ResponseWriter, r *http.Request) {
	s.transitionNegotiation(w, r, negotiation.ActionReject)
}

func (s *Server) cancelNegotiation(w http.ResponseWriter, r *http.Request) {
	s.transitionNegotiation(w, r, negotiation.ActionCancel)
}

func (s *Server) transitionNegotiation(w http.ResponseWriter, r *http.Request, action negotiation.Action) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	n, err := s.negotiationSvc.Transition(r.Context(), negotiationID, au.UserID, action)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

type counterItemRequest struct {
	ItemID string `json:"itemId" validate:"required,uuid4"`
}

func (s *Server) offerCounterItem(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	var req counterItemRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid item id")
		return
	}
	n, err := s.negotiationSvc.OfferItem(r.Context(), negotiationID, au.UserID, itemID)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

type meetingPointRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Name      string  `json:"name" validate:"required,max=256"`
	Address   string  `json:"address" validate:"required,max=512"`
	PlaceRef  *string `json:"placeRef" validate:"omitempty,max=256"`
}

func (s *Server) proposeMeetingPoint(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	var req meetingPointRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	mp := negotiation.MeetingPoint{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Name:      req.Name,
		Address:   req.Address,
		PlaceRef:  req.PlaceRef,
	}
	n, err := s.negotiationSvc.ProposeLocation(r.Context(), negotiationID, au.UserID, mp)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (s *Server) confirmNegotiation(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	negotiationID, err := parseUUIDParam(r, "negotiationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid negotiation id")
		return
	}
	result, err := s.negotiationSvc.Confirm(r.Context(), negotiationID, au.UserID)
	if err != nil {
		respondNegotiationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
