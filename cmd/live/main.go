// Package main provides the entrypoint for the MakeItFast live fan-out
// service: it consumes station changes from the event bus and pushes them
// to websocket subscribers.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/database"
	"github.com/dearxcorex/MakeItFast/internal/events"
	"github.com/dearxcorex/MakeItFast/internal/live"
	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "makeitfast-live"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting MakeItFast live fan-out")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	stationService := station.NewService(station.ServiceConfig{
		Repo:   station.NewPostgresRepository(pool),
		Logger: log,
	})

	// Each live replica gets its own subscription so every hub instance
	// sees every change. Without Pub/Sub the hub still serves snapshots;
	// it just never learns about writes until restarted.
	var subscriber events.Subscriber
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subName := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subName == "" {
			subName = "station-changes-live"
		}
		sub, subErr := events.NewPubSubSubscriber(ctx, events.PubSubSubscriberConfig{
			ProjectID:        projectID,
			SubscriptionName: subName,
			Logger:           log,
		})
		if subErr != nil {
			log.Fatal().Err(subErr).Msg("failed to create pubsub subscriber")
		}
		defer sub.Close()
		subscriber = sub
		log.Info().Str("subscription", subName).Msg("station change subscriber initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - serving snapshots only")
	}

	hub, err := live.NewHub(live.HubConfig{
		Stations:   stationService,
		Subscriber: subscriber,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create hub")
	}

	if err := hub.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load station cache")
	}

	go func() {
		if runErr := hub.Run(ctx); runErr != nil && ctx.Err() == nil {
			log.Error().Err(runErr).Msg("hub stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/v1/live", hub)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
		// No WriteTimeout: websocket connections outlive any sane value.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("live server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down live fan-out")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("live fan-out stopped")
}
