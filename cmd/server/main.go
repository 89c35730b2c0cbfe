package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/teamzeta/pockit-api/internal/config"
	"github.com/teamzeta/pockit-api/internal/database"
	"github.com/teamzeta/pockit-api/internal/handler"
	"github.com/teamzeta/pockit-api/internal/middleware"
	"github.com/teamzeta/pockit-api/internal/repository"
	"github.com/teamzeta/pockit-api/internal/server"
	"github.com/teamzeta/pockit-api/internal/usecase"
	"github.com/teamzeta/pockit-api/internal/verifier"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load(&logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.MongoDatabase)
	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)

	googleVerifier, err := verifier.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize google verifier")
	}

	identities := usecase.NewIdentityUsecase(userRepo, &logger)
	authn := middleware.NewAuthenticator(googleVerifier, identities, &logger)
	authHandler := handler.NewAuthHandler(userRepo, &logger)
	healthHandler := handler.NewHealthHandler()

	router := server.NewRouter(cfg, &logger, authn, authHandler, healthHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return
	}

	logger.Info().Msg("server stopped cleanly")
}
