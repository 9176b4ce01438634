// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package web exposes the JSON API over gin.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/engagement"
	"github.com/inkwell/inkwell/internal/observability"
	"github.com/inkwell/inkwell/internal/subscription"
)

// Logins issues and redeems magic links.
type Logins interface {
	RequestMagicLink(ctx context.Context, email, returnURL string) (auth.LoginResult, error)
	VerifyMagicLink(ctx context.Context, token string) (*auth.Verification, error)
}

// Sessions resolves and revokes session tokens.
type Sessions interface {
	ValidateSession(ctx context.Context, token string) (*auth.Subscriber, error)
	InvalidateSession(ctx context.Context, token string) error
}

// Subscriptions runs the newsletter opt-in lifecycle.
type Subscriptions interface {
	Subscribe(ctx context.Context, email, name string) (subscription.Result, error)
	Confirm(ctx context.Context, token string) (subscription.Result, error)
	Unsubscribe(ctx context.Context, token string) (subscription.Result, error)
}

// Likes reads and toggles newsletter likes.
type Likes interface {
	Summary(ctx context.Context, slug string, viewer *auth.Subscriber) (engagement.Summary, error)
	Toggle(ctx context.Context, slug string, subscriber *auth.Subscriber) (engagement.ToggleResult, error)
}

// Config wires the router.
type Config struct {
	Logins        Logins
	Sessions      Sessions
	Subscriptions Subscriptions
	Likes         Likes

	// Origins is the CORS allow list. Credentials are always allowed.
	Origins []string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	Logger  *slog.Logger
	Metrics *observability.HTTPMetrics
	Now     func() time.Time
}

type server struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter builds the API handler. Call gin.SetMode before this.
func NewRouter(cfg Config) *gin.Engine {
	s := &server{cfg: cfg, logger: cfg.Logger, now: cfg.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// The logger wraps recovery so panics still produce a log line and a metric.
	r.Use(requestLogger(s.logger, cfg.Metrics))
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	api := r.Group("/api")
	api.GET("/health", s.health)

	required := RequireSession(cfg.Sessions, s.logger)
	optional := OptionalSession(cfg.Sessions, s.logger)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.GET("/verify/:token", s.verify)
	authGroup.GET("/me", optional, s.me)
	authGroup.POST("/logout", required, s.logout)

	news := api.Group("/newsletter")
	if cfg.Subscriptions != nil {
		news.POST("/subscribe", s.subscribe)
		news.GET("/confirm/:token", s.confirm)
		news.GET("/unsubscribe/:token", s.unsubscribe)
	}
	if cfg.Likes != nil {
		news.GET("/:slug/likes", optional, s.likeSummary)
		news.POST("/:slug/likes", required, s.toggleLike)
	}

	return r
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
