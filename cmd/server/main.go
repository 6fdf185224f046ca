package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tulisan/ocr-uploader/api"
	"github.com/tulisan/ocr-uploader/internal/auth"
	"github.com/tulisan/ocr-uploader/internal/clipboard"
	"github.com/tulisan/ocr-uploader/internal/config"
	"github.com/tulisan/ocr-uploader/internal/logging"
	"github.com/tulisan/ocr-uploader/internal/metrics"
	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/ocr"
	"github.com/tulisan/ocr-uploader/internal/storage"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.SetDebug(cfg.Log.Debug)
	logger := logging.NewLogger("Server")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	// Preview storage
	previews := openPreviewStore(cfg, logger)

	clip := clipboard.New(cfg.Clipboard.Enabled)
	if !cfg.Clipboard.Enabled {
		logger.Info("Clipboard disabled, copy requests will be ignored")
	}

	issuer, err := auth.NewIssuer(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET not set, sessions end on restart")
	}

	client := ocr.NewClient(cfg.OCR, logging.NewLogger("OCR"))

	// Create API handler
	handler := api.NewHandler(cfg, api.Dependencies{
		OCR:       client,
		Previews:  previews,
		Clipboard: clip,
		Issuer:    issuer,
		Logger:    logging.NewLogger("API"),
		Gatherer:  prometheus.DefaultGatherer,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Starting OCR Uploader v%s on %s", api.Version, addr)
	log.Printf("OCR service: %s", client.Endpoint())
	log.Printf("Preview storage: %s", previews.Status().Version)
	log.Printf("Endpoints:")
	log.Printf("  GET  http://%s/                - Upload form", addr)
	log.Printf("  POST http://%s/select          - Select image", addr)
	log.Printf("  POST http://%s/process         - Run OCR", addr)
	log.Printf("  POST http://%s/copy            - Copy text to clipboard", addr)
	log.Printf("  GET  http://%s/api/state       - Form state (JSON)", addr)
	log.Printf("  GET  http://%s/health          - Health check", addr)
	log.Printf("  GET  http://%s/metrics         - Prometheus metrics", addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	handler.Sessions().Close(ctx)
}

// openPreviewStore uses MinIO when configured and falls back to process memory
func openPreviewStore(cfg *models.Config, logger *logging.Logger) storage.PreviewStore {
	if cfg.Storage.MinIO.Endpoint == "" {
		logger.Info("Previews kept in memory")
		return storage.NewMemoryStore("/preview")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewMinIOStore(ctx, cfg.Storage.MinIO)
	if err != nil {
		logger.Warn("MinIO storage not available, previews kept in memory", "error", err)
		return storage.NewMemoryStore("/preview")
	}
	logger.Info("MinIO storage initialized", "endpoint", cfg.Storage.MinIO.Endpoint, "bucket", cfg.Storage.MinIO.Bucket)
	return store
}
