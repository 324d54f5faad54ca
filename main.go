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

	"github.com/pinpoint/pinpoint/backend/go-services/handlers"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/config"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/database"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/routes"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/server"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/logger"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v prefix=%s", cfg.MongoDB.URI != "", cfg.Redis.Addr() != "", cfg.Server.APIPrefix)

	ctx := context.Background()
	checks := map[string]handlers.Check{}

	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	var sessionRepo sessions.Repository
	if rdb != nil {
		sessionRepo = sessions.NewRedisRepository(rdb, "session:")
	} else {
		logger.Warnf("sessions are kept in memory; they will not survive a restart")
		sessionRepo = sessions.NewMemoryRepository()
	}
	sessionSvc := sessions.NewService(sessionRepo, cfg.Session.TTL)

	var opener repository.Opener
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		opener = repository.NewMongoOpener(client.Database(cfg.MongoDB.Database))
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	} else {
		logger.Warnf("MONGODB_URI not set, using the in-memory document store")
		opener = repository.NewMemoryOpener()
	}

	var media storage.MediaStore
	minioCfg := storage.LoadMinIOConfig()
	if minioCfg.Endpoint != "" {
		ms, err := storage.NewMinIOStorage(minioCfg)
		if err != nil {
			logger.Fatalf("media storage: %v", err)
		}
		media = ms
		logger.Infof("media stored in MinIO bucket %q", minioCfg.Bucket)
	} else {
		media = storage.NewMemoryStorage(minioCfg.Bucket)
	}
	checks["media"] = media.Ping

	svcs := routes.NewServices(opener, media, cfg.Auth.BcryptCost)
	idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := svcs.EnsureIndexes(idxCtx); err != nil {
		cancel()
		logger.Fatalf("failed to create indexes: %v", err)
	}
	cancel()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	engine, err := server.New(server.Deps{
		Config:   cfg,
		Services: svcs,
		Sessions: sessionSvc,
		Media:    media,
		Redis:    rdb,
		Checks:   checks,
		Started:  time.Now(),
	})
	if err != nil {
		logger.Fatalf("failed to build server: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
