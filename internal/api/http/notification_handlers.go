package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfswap/shelfswap/internal/domain/notification"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	limit, offset := parseLimitOffset(r, 50, 200)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := s.notificationSvc.ListByRecipient(r.Context(), au.UserID, unreadOnly, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to list notifications")
		return
	}
	unread, err := s.notificationSvc.CountUnread(r.Context(), au.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to count notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

func (s *Server) readNotification(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	notificationID, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid notification id")
		return
	}
	n, err := s.notificationSvc.MarkRead(r.Context(), notificationID, au.UserID)
	if err != nil {
		switch {
		case errors.Is(err, notification.ErrNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "notification not found")
		case errors.Is(err, notification.ErrAlreadyRead):
			respondError(w, http.StatusConflict, "ALREADY_SET", "notification already read")
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to mark notification read")
		}
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	au, _ := authUserFromContext(r.Context())
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "streaming not supported")
		return
	}

	client := notification.NewSSEClient(clientID, au.UserID)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
