package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/santiagocoriap/quakescope/internal/alerts"
	"github.com/santiagocoriap/quakescope/internal/api"
	"github.com/santiagocoriap/quakescope/internal/catalog"
	"github.com/santiagocoriap/quakescope/internal/config"
	internalgrpc "github.com/santiagocoriap/quakescope/internal/grpc"
	"github.com/santiagocoriap/quakescope/internal/ingestion"
	"github.com/santiagocoriap/quakescope/internal/kafka"
	"github.com/santiagocoriap/quakescope/internal/logging"
	"github.com/santiagocoriap/quakescope/internal/observability"
	"github.com/santiagocoriap/quakescope/internal/preferences"
	"github.com/santiagocoriap/quakescope/internal/remote"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}

	var logFile *logging.FileConfig
	if cfg.Logging.File != "" {
		logFile = &logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		}
	}
	logCloser := logging.Setup(cfg.Logging.Level, logFile)
	defer logCloser.Close()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "backend", cfg.Remote.BaseURL)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, metrics, slog.Default().With("component", "remote"))

	quakes := catalog.NewService(client, db, metrics, cfg.Paging.PageSize)
	prefs := preferences.NewService(db, client)

	// Alert sinks: live gRPC streams, plus the Kafka topic when configured
	broadcaster := internalgrpc.NewBroadcaster()
	sinks := []alerts.Sink{broadcaster}

	var kafkaWriter *kafka.Writer
	if cfg.Kafka.Enabled() {
		kafkaWriter = kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks = append(sinks, kafkaWriter)
		slog.Info("publishing alerts to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	evaluator := alerts.NewEvaluator(prefs, db, metrics, cfg.Alerts.MaxHistory, sinks...)

	go watchPreferences(ctx, prefs)

	// Start ingestion manager
	mgr := ingestion.NewManager(cfg, client, db, evaluator, metrics)
	mgr.Start(ctx)

	// Start gRPC server
	grpcServer := internalgrpc.NewServer(db, broadcaster, metrics)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	handler := api.NewHandler(quakes, prefs, db, broadcaster, db, broadcaster)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Drain queued quakes while their context is still live
	mgr.Stop()
	cancel()
	broadcaster.Close() // Close all streams gracefully
	grpcServer.Stop()

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			slog.Error("kafka writer close error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func watchPreferences(ctx context.Context, prefs *preferences.Service) {
	updates, err := prefs.Observe(ctx)
	if err != nil {
		slog.Error("failed to observe alert preferences", "error", err)
		return
	}
	for p := range updates {
		slog.Info("alert preferences active",
			"has_location", p.HasLocation(),
			"radius_km", p.AlertRadiusKm,
			"min_magnitude", p.MinimumMagnitude,
		)
	}
}
