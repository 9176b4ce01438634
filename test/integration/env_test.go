// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/gomega" //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/inkwell/inkwell/internal/auth"
	authpg "github.com/inkwell/inkwell/internal/auth/postgres"
	"github.com/inkwell/inkwell/internal/engagement"
	engagementpg "github.com/inkwell/inkwell/internal/engagement/postgres"
	"github.com/inkwell/inkwell/internal/store"
	"github.com/inkwell/inkwell/internal/subscription"
	"github.com/inkwell/inkwell/internal/web"
)

// capturedMail records everything the services try to send.
type capturedMail struct {
	mu       sync.Mutex
	logins   map[string]string
	confirms map[string]string
}

func newCapturedMail() *capturedMail {
	return &capturedMail{logins: map[string]string{}, confirms: map[string]string{}}
}

func (m *capturedMail) SendMagicLink(_ context.Context, email, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[email] = token
	return nil
}

func (m *capturedMail) SendConfirmation(_ context.Context, email, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms[email] = token
	return nil
}

func (m *capturedMail) SendUnsubscribeNotice(context.Context, string) error { return nil }

func (m *capturedMail) loginToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logins[email]
}

func (m *capturedMail) confirmToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirms[email]
}

// testEnv holds a migrated database and an API server in front of it.
type testEnv struct {
	ctx       context.Context
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	mail      *capturedMail
	sessions  *auth.SessionService
	server    *httptest.Server
}

func setupTestEnv() (*testEnv, error) {
	ctx := context.Background()
	env := &testEnv{ctx: ctx, mail: newCapturedMail()}

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("inkwell_test"),
		postgres.WithUsername("inkwell"),
		postgres.WithPassword("inkwell"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr, store.ConnectOptions{MaxAttempts: 3})
	if err != nil {
		env.cleanup()
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	subscribers := authpg.NewSubscriberRepository(env.pool)
	links := authpg.NewMagicLinkRepository(env.pool)

	env.sessions, err = auth.NewSessionService(authpg.NewSessionRepository(env.pool), links, auth.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	logins, err := auth.NewMagicLinkService(subscribers, links, env.sessions, env.mail, auth.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	subs, err := subscription.NewService(subscribers, env.mail, subscription.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	likes, err := engagement.NewService(engagementpg.NewLikeRepository(env.pool))
	if err != nil {
		env.cleanup()
		return nil, err
	}

	gin.SetMode(gin.TestMode)
	env.server = httptest.NewServer(web.NewRouter(web.Config{
		Logins:        logins,
		Sessions:      env.sessions,
		Subscriptions: subs,
		Likes:         likes,
		Origins:       []string{"http://localhost:3000"},
		Logger:        logger,
	}))
	return env, nil
}

func (e *testEnv) cleanup() {
	if e.server != nil {
		e.server.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

// client returns an HTTP client with its own cookie jar.
func (e *testEnv) client() *http.Client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// call issues a request and decodes the JSON body.
func (e *testEnv) call(c *http.Client, method, path, body string) (int, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(e.ctx, method, e.server.URL+path, r)
	Expect(err).NotTo(HaveOccurred())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var out map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return resp.StatusCode, out
}

// publish inserts a sent newsletter.
func (e *testEnv) publish(id, slug string) {
	_, err := e.pool.Exec(e.ctx, `
		INSERT INTO newsletters (id, slug, title, status, sent_at)
		VALUES ($1, $2, $3, 'sent', now())
	`, id, slug, "Issue "+slug)
	Expect(err).NotTo(HaveOccurred())
}
