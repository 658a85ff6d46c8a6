package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pmani/ad-mosaic/internal/api"
	"github.com/pmani/ad-mosaic/internal/auth"
	"github.com/pmani/ad-mosaic/internal/config"
	"github.com/pmani/ad-mosaic/internal/inspector"
	"github.com/pmani/ad-mosaic/internal/media"
	"github.com/pmani/ad-mosaic/internal/pages"
	"github.com/pmani/ad-mosaic/internal/pkg/logger"
	"github.com/pmani/ad-mosaic/internal/storage"
	"github.com/pmani/ad-mosaic/internal/warehouse"
)

// checkPortAvailable verifies the target port is not already in use, so a
// stale process fails the boot loudly instead of hiding behind the old one.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot store: Redis when configured, otherwise in-process memory.
	var snapshots inspector.SnapshotStore = inspector.NewMemorySnapshotStore()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to memory snapshots", "addr", cfg.Redis.Addr, "error", err.Error())
		} else {
			snapshots = inspector.NewRedisSnapshotStore(redisClient, cfg.Inspector.DatasetTTL())
			logger.Info("redis snapshot store ready", "addr", cfg.Redis.Addr)
		}
	}

	datasets := inspector.NewManager(cfg.Inspector, snapshots)
	go datasets.Sweep(ctx)

	renderer := media.NewRenderer(cfg.Export)
	exporter := inspector.NewExporter(renderer, cfg.Export.ThumbnailWidth, cfg.Export.ThumbnailHeight)

	// The warehouse is optional: without it the pages and table endpoints
	// report unavailable but the inspector still works.
	var (
		whClient *warehouse.Client
		pagesSvc *pages.Service
	)
	if cfg.Warehouse.Account != "" {
		whClient, err = warehouse.NewClient(cfg.Warehouse)
		if err != nil {
			log.Fatalf("Failed to initialize warehouse client: %v", err)
		}
		defer whClient.Close()
		pagesSvc = pages.NewService(whClient.DB())
		logger.Info("warehouse client ready", "account", cfg.Warehouse.Account)
	} else {
		logger.Warn("warehouse not configured; pages endpoints disabled")
	}

	archiver, err := storage.NewArchiver(ctx, cfg.Export)
	if err != nil {
		logger.Warn("export archiving disabled", "error", err.Error())
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := os.Getenv("BASE_URL")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
		}
		frontendURL := os.Getenv("FRONTEND_URL")
		authManager = auth.NewManager(&cfg.Auth, baseURL, frontendURL)
		go authManager.CleanupExpiredSessions(ctx)
		logger.Info("google oauth enabled", "domain", cfg.Auth.AllowedDomain)
	} else {
		logger.Warn("auth disabled; all endpoints are open")
	}

	handlers := api.NewHandlers(cfg.Inspector, datasets, exporter, pagesSvc, whClient, archiver)
	server := api.NewServer(cfg.Server, handlers, authManager)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "host", host, "port", fmt.Sprintf("%d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
