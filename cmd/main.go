package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/client"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/config"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/handler"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/hub"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/registry"
	"github.com/richcobrien1/TrafficJamz-sub002/internal/service"
	pkglog "github.com/richcobrien1/TrafficJamz-sub002/pkg/log"
	"github.com/richcobrien1/TrafficJamz-sub002/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, ServiceName: "sync-service"})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting sync-service")

	// Session snapshot store
	var store registry.SessionStore
	switch cfg.Store.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Address,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis store")
		}
		store = registry.NewRedisStore(rdb, cfg.Store.TTL)
		logger.Info().Str("address", cfg.Store.Address).Msg("using redis session store")
	default:
		store = registry.NewMemoryStore()
		logger.Info().Msg("using in-memory session store")
	}

	// Cross-instance relay; optional, single instances run without it.
	var ps pubsub.PubSub
	if cfg.Store.Driver == "redis" {
		ps, err = pubsub.NewPubSub(cfg.PubSub)
		if err != nil {
			logger.Warn().Err(err).Msg("pubsub unavailable, running single-instance")
			ps = nil
		} else {
			defer ps.Close()
			logger.Info().Msg("connected to redis pubsub")
		}
	}

	catalogClient := client.NewCatalogClient(cfg.Catalog.HTTPAddress, cfg.Catalog.CacheTTL)
	logger.Info().Str("address", cfg.Catalog.HTTPAddress).Msg("catalog client configured")

	// Hub and registry
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	reg := registry.New(store, cfg.Sync.PreviousGrace)

	// Service
	syncSvc := service.NewSyncService(wsHub, reg, catalogClient, ps, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handlers
	wsHandler := handler.NewWSHandler(wsHub, syncSvc)
	httpHandler := handler.NewHTTPHandler(syncSvc)

	// WebSocket server
	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	wsServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     pkglog.HTTPMiddleware(logger)(mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Read-only HTTP API
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(pkglog.GinMiddleware(logger), gin.Recovery())
	httpHandler.RegisterRoutes(engine)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return syncSvc.Start(gctx)
	})
	g.Go(func() error {
		logger.Info().Str("addr", wsServer.Addr).Msg("websocket server listening")
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", apiServer.Addr).Msg("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutting down sync-service")
	case <-gctx.Done():
		logger.Error().Msg("component failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("websocket server forced to shutdown")
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server forced to shutdown")
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("shutdown with error")
	}

	logger.Info().Msg("sync-service stopped")
}
