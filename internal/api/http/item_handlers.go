package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shelfswap/shelfswap/internal/domain/item"
)

type createItemRequest struct {
	Title       string   `json:"title" validate:"required,max=256"`
	Author      string   `json:"author" validate:"max=256"`
	Description string   `json:"description" validate:"max=2048"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	var req createItemRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	it, err := s.catalogSvc.AddItem(r.Context(), au.UserID, req.Title, req.Author, req.Description, req.Latitude, req.Longitude)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, it)
}

func (s *Server) listOwnItems(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	items, err := s.catalogSvc.ListByOwner(r.Context(), au.UserID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to list items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) listNearbyItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "lat is required")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "lon is required")
		return
	}
	radiusKm := 10.0
	if v := q.Get("radiusKm"); v != "" {
		radiusKm, err = strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid radiusKm")
			return
		}
	}
	limit, _ := parseLimitOffset(r, 50, 200)
	items, err := s.catalogSvc.ListNearby(r.Context(), lat, lon, radiusKm, limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseUUIDParam(r, "itemId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid item id")
		return
	}
	it, err := s.catalogSvc.Get(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, item.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "item not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to load item")
		return
	}
	respondJSON(w, http.StatusOK, it)
}
