package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/charsheet-be/internal/api"
	"github.com/isdelr/charsheet-be/internal/auth"
	"github.com/isdelr/charsheet-be/internal/config"
	"github.com/isdelr/charsheet-be/internal/database"
	"github.com/isdelr/charsheet-be/internal/logger"
	"github.com/isdelr/charsheet-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database; the pool lives for the whole process
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService, cfg.BcryptCost)
	characterService := services.NewCharacterService(db, eventService)

	sameSite, _ := cfg.SameSite() // validated by config.Load
	opts := api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Tokens:         auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL),
		Cookies: auth.CookiePolicy{
			Name:     cfg.SessionCookieName,
			Secure:   cfg.SecureCookies(),
			SameSite: sameSite,
		},
	}

	// Set up router
	router := api.NewRouter(opts, db, userService, characterService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
