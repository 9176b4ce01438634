// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/observability"
	"github.com/inkwell/inkwell/pkg/errutil"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// 401 messages.
const (
	MessageAuthRequired   = "Authentication required"
	MessageSessionInvalid = "Invalid or expired session"
)

func sessionToken(c *gin.Context) string {
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}

func attach(c *gin.Context, sub *auth.Subscriber) {
	c.Request = c.Request.WithContext(auth.WithSubscriber(c.Request.Context(), sub))
}

// RequireSession rejects requests without a valid session cookie and
// attaches the subscriber to the request context otherwise.
func RequireSession(sessions Sessions, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MessageAuthRequired})
			return
		}

		sub, err := sessions.ValidateSession(c.Request.Context(), token)
		if err != nil {
			errutil.LogErrorContext(c.Request.Context(), logger, "session validation failed", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": MessageInternal})
			return
		}
		if sub == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MessageSessionInvalid})
			return
		}

		attach(c, sub)
		c.Next()
	}
}

// OptionalSession attaches the subscriber when the cookie is valid and
// otherwise continues anonymously. Store errors are logged and treated as
// anonymous.
func OptionalSession(sessions Sessions, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			sub, err := sessions.ValidateSession(c.Request.Context(), token)
			switch {
			case err != nil:
				errutil.LogErrorContext(c.Request.Context(), logger, "optional session validation failed", err)
			case sub != nil:
				attach(c, sub)
			}
		}
		c.Next()
	}
}

// requestLogger logs one line per request and feeds the HTTP metrics.
// Only the route template is logged: raw paths carry link tokens.
func requestLogger(logger *slog.Logger, metrics *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if metrics != nil {
			metrics.Observe(route, c.Request.Method, status, elapsed)
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", elapsed,
			"ip", c.ClientIP(),
		)
	}
}
