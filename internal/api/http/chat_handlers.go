package httpapi

import (
	"errors"
	"net/http"

	"github.com/shelfswap/shelfswap/internal/domain/chat"
)

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "conversation not found")
	case errors.Is(err, chat.ErrNotParticipant):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "not a participant of this conversation")
	case errors.Is(err, chat.ErrEmptyBody):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "message body must not be empty")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	conversations, err := s.chatSvc.ListByParticipant(r.Context(), au.UserID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to list conversations")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"conversations": conversations})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	conversationID, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid conversation id")
		return
	}
	limit, offset := parseLimitOffset(r, 100, 500)
	messages, err := s.chatSvc.ListMessages(r.Context(), conversationID, au.UserID, limit, offset)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,max=4096"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	conversationID, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid conversation id")
		return
	}
	var req postMessageRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	msg, err := s.chatSvc.PostMessage(r.Context(), conversationID, au.UserID, req.Body)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
