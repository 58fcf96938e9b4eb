package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/shelfswap/shelfswap/internal/api/http"
	"github.com/shelfswap/shelfswap/internal/application/auth"
	"github.com/shelfswap/shelfswap/internal/application/catalog"
	appChat "github.com/shelfswap/shelfswap/internal/application/chat"
	"github.com/shelfswap/shelfswap/internal/application/dispatch"
	appNegotiation "github.com/shelfswap/shelfswap/internal/application/negotiation"
	appNotification "github.com/shelfswap/shelfswap/internal/application/notification"
	"github.com/shelfswap/shelfswap/internal/application/user"
	"github.com/shelfswap/shelfswap/internal/config"
	"github.com/shelfswap/shelfswap/internal/infrastructure/postgres"
	"github.com/shelfswap/shelfswap/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	negotiationRepo := postgres.NewNegotiationRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()

	// services
	notificationSvc := appNotification.NewService(notificationRepo, sseHub, logger)
	chatSvc := appChat.NewService(chatRepo, logger)
	catalogSvc := catalog.NewService(itemRepo, logger)
	userSvc := user.NewService(userRepo, logger)
	authSvc := auth.NewService(userRepo, sessionRepo, cfg.SessionTTL, logger)
	dispatcher := dispatch.NewDispatcher(userRepo, itemRepo, notificationSvc, chatSvc, logger)
	negotiationSvc := appNegotiation.NewService(negotiationRepo, itemRepo, dispatcher, logger)

	// API server
	apiServer := httpapi.NewServer(userSvc, authSvc, catalogSvc, negotiationSvc, chatSvc, notificationSvc, sseHub, cfg.SessionCookieName, cfg.SessionCookieSecure)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			n, err := sessionRepo.DeleteExpired(context.Background())
			if err != nil {
				logger.Warn().Err(err).Msg("expired session sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("count", n).Msg("expired sessions deleted")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}
