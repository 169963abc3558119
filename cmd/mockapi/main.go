package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/campaign-console/internal/mockapi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")
	minDelay := getEnvDuration("MIN_DELAY", 0)
	maxDelay := getEnvDuration("MAX_DELAY", 200*time.Millisecond)
	token := os.Getenv("MOCK_TOKEN")
	apiKey := os.Getenv("MOCK_API_KEY")

	log.Info().
		Str("port", port).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Bool("auth", token != "" || apiKey != "").
		Msg("Starting mock campaign API")

	if getEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := mockapi.NewHandler(mockapi.NewStore(), mockapi.Config{
		Token:    token,
		APIKey:   apiKey,
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		Logger:   log.Logger,
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mockapi.SetupRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
