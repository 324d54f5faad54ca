// Package server assembles the gin engine: ambient middleware, health and
// documentation endpoints, media uploads and the dispatched API.
package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/handlers"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/config"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/routes"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/logger"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/middleware"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the already-connected collaborators of the HTTP layer.
type Deps struct {
	Config   *config.Config
	Services *routes.Services
	Sessions *sessions.Service
	Media    storage.MediaStore
	// Redis is optional; it backs the shared rate limiter when configured.
	Redis   *redis.Client
	Checks  map[string]handlers.Check
	Started time.Time
}

// New builds the engine. It fails when the route table is invalid or the API
// prefix would put the dispatcher at the root.
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if strings.Trim(cfg.Server.APIPrefix, "/ ") == "" {
		return nil, fmt.Errorf("api prefix %q: the dispatcher cannot be mounted at the root", cfg.Server.APIPrefix)
	}
	cookie := middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}
	dispatcher, err := router.New(routes.Table(d.Services),
		router.WithPrefix(cfg.Server.APIPrefix),
		router.WithTimeout(cfg.Server.HandlerTimeout),
		router.WithCommit(middleware.CommitSession(d.Sessions, cookie)),
	)
	if err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	started := d.Started
	if started.IsZero() {
		started = time.Now()
	}
	handlers.RegisterHealth(r, started, d.Checks)
	handlers.RegisterSwagger(r, dispatcher)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := r.Group("")
	app.Use(middleware.SessionMiddleware(d.Sessions, cookie))
	// after the session middleware so authenticated users are limited per user
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			app.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			app.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		logger.Infof("rate limiter enabled (rps=%v burst=%d redis=%v)", cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.UseRedis && d.Redis != nil)
	}

	handlers.NewMediaHandler(d.Media, handlers.DefaultMaxUpload).Register(app)
	dispatcher.Mount(app)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// browsers refuse credentials with a wildcard origin
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
