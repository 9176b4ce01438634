// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inkwell/inkwell/internal/auth"
	authpg "github.com/inkwell/inkwell/internal/auth/postgres"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/engagement"
	engagementpg "github.com/inkwell/inkwell/internal/engagement/postgres"
	"github.com/inkwell/inkwell/internal/mail"
	"github.com/inkwell/inkwell/internal/observability"
	"github.com/inkwell/inkwell/internal/scheduler"
	"github.com/inkwell/inkwell/internal/subscription"
	"github.com/inkwell/inkwell/internal/web"
	"github.com/inkwell/inkwell/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API, the metrics/health server and the
expired credential sweeper.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// outbound is everything that sends email.
type outbound interface {
	auth.MagicLinkSender
	subscription.Mailer
}

// newMailer returns the Resend client, or a logging stand-in outside
// production when no API key is configured.
func newMailer(cfg *config.Config, logger *slog.Logger) (outbound, error) {
	if cfg.Mail.APIKey == "" && !cfg.IsProduction() {
		logger.Warn("no mail API key configured, emails will be logged instead of sent")
		return mail.NewLogSender(logger, cfg.FrontendURL), nil
	}
	client, err := mail.NewClient(cfg.Mail.APIKey, cfg.Mail.From, cfg.FrontendURL,
		mail.WithBaseURL(cfg.Mail.BaseURL),
		mail.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// sweepJob removes expired sessions and magic links.
func sweepJob(sessions *auth.SessionService, interval time.Duration) scheduler.Job {
	return scheduler.Job{
		Name:       "expired-credentials",
		Interval:   interval,
		Timeout:    time.Minute,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := sessions.CleanupExpired(ctx)
			return err
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate config").Wrap(err)
	}

	logger, err := setupLogging(cfg, deps.LogWriter)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}

	logger.Info("starting api server",
		"env", cfg.Env,
		"http_addr", cfg.HTTPAddr,
		"log_format", cfg.LogFormat,
	)

	if cfg.AutoMigrate {
		if err := migrateUp(deps, cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	db, err := deps.DBFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	logger.Info("connected to database")

	subscribers := authpg.NewSubscriberRepository(db)
	links := authpg.NewMagicLinkRepository(db)
	sessionRepo := authpg.NewSessionRepository(db)

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return oops.With("operation", "create mailer").Wrap(err)
	}

	sessions, err := auth.NewSessionService(sessionRepo, links, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	logins, err := auth.NewMagicLinkService(subscribers, links, sessions, mailer, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	subs, err := subscription.NewService(subscribers, mailer, subscription.WithLogger(logger))
	if err != nil {
		return err
	}
	likes, err := engagement.NewService(engagementpg.NewLikeRepository(db))
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	defer func() {
		if closeErr := listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			logger.Debug("error closing listener", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		registry  prometheus.Registerer = prometheus.NewRegistry()
		metrics   *observability.HTTPMetrics
	)
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, db.Ping)
		registry = obsServer.Registry()
		metrics = obsServer.HTTPMetrics()
	}
	auth.RegisterMetrics(registry)
	scheduler.RegisterMetrics(registry)

	if obsServer != nil {
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sched := scheduler.New(logger)
	err = sched.Add(sweepJob(sessions, cfg.SweepInterval))
	if err == nil {
		err = sched.Start(ctx)
	}
	if err != nil {
		if obsServer != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop observability server during cleanup", "error", stopErr)
			}
		}
		return oops.With("operation", "start scheduler").Wrap(err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := web.NewRouter(web.Config{
		Logins:        logins,
		Sessions:      sessions,
		Subscriptions: subs,
		Likes:         likes,
		Origins:       cfg.Origins(),
		SecureCookies: cfg.IsProduction(),
		Logger:        logger,
		Metrics:       metrics,
	})

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErrCh := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			httpErrCh <- serveErr
		}
		close(httpErrCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("API server started")
	logger.Info("api server ready", "addr", listener.Addr().String())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr, ok := <-httpErrCh:
		if ok {
			runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping scheduler", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// monitorServerErrors cancels ctx when a server reports an error. It returns
// when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
