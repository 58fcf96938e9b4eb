package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appAuth "github.com/shelfswap/shelfswap/internal/application/auth"
	appCatalog "github.com/shelfswap/shelfswap/internal/application/catalog"
	appChat "github.com/shelfswap/shelfswap/internal/application/chat"
	appNegotiation "github.com/shelfswap/shelfswap/internal/application/negotiation"
	appNotification "github.com/shelfswap/shelfswap/internal/application/notification"
	appUser "github.com/shelfswap/shelfswap/internal/application/user"
	"github.com/shelfswap/shelfswap/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	userSvc             *appUser.Service
	authSvc             *appAuth.Service
	catalogSvc          *appCatalog.Service
	negotiationSvc      *appNegotiation.Service
	chatSvc             *appChat.Service
	notificationSvc     *appNotification.Service
	sseHub              *sse.Hub
	validate            *validator.Validate
	sessionCookieName   string
	sessionCookieSecure bool
}

func NewServer(
	userSvc *appUser.Service,
	authSvc *appAuth.Service,
	catalogSvc *appCatalog.Service,
	negotiationSvc *appNegotiation.Service,
	chatSvc *appChat.Service,
	notificationSvc *appNotification.Service,
	sseHub *sse.Hub,
	sessionCookieName string,
	sessionCookieSecure bool,
) *Server {
	return &Server{
		userSvc:             userSvc,
		authSvc:             authSvc,
		catalogSvc:          catalogSvc,
		negotiationSvc:      negotiationSvc,
		chatSvc:             chatSvc,
		notificationSvc:     notificationSvc,
		sseHub:              sseHub,
		validate:            validator.New(),
		sessionCookieName:   sessionCookieName,
		sessionCookieSecure: sessionCookieSecure,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", s.createItem)
				r.Get("/", s.listOwnItems)
				r.Get("/nearby", s.listNearbyItems)
				r.Get("/{itemId}", s.getItem)
			})

			r.Route("/negotiations", func(r chi.Router) {
				r.Post("/", s.createNegotiation)
				r.Get("/", s.listNegotiations)
				r.Get("/{negotiationId}", s.getNegotiation)
				r.Get("/{negotiationId}/history", s.getNegotiationHistory)
				r.Post("/{negotiationId}/accept", s.acceptNegotiation)
				r.Post("/{negotiationId}/reject", s.rejectNegotiation)
				r.Post("/{negotiationId}/cancel", s.cancelNegotiation)
				r.Post("/{negotiationId}/counter-item", s.offerCounterItem)
				r.Put("/{negotiationId}/meeting-point", s.proposeMeetingPoint)
				r.Post("/{negotiationId}/confirm", s.confirmNegotiation)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", s.listConversations)
				r.Get("/{conversationId}/messages", s.listMessages)
				r.Post("/{conversationId}/messages", s.postMessage)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.listNotifications)
				r.Post("/{notificationId}/read", s.readNotification)
			})

			r.Get("/events", s.sseEndpoint)
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeValid decodes the body and runs struct-tag validation.
func (s *Server) decodeValid(r *http.Request, v interface{}) error {
	if err := decodeBody(r, v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
