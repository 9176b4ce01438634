// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/engagement"
	"github.com/inkwell/inkwell/internal/subscription"
	"github.com/inkwell/inkwell/pkg/errutil"
)

// Fixed response messages.
const (
	MessageInternal     = "Internal server error"
	MessageInvalidEmail = "Invalid email address"
)

// fail writes the client-safe form of err. Errors without a public message
// become a logged 500.
func (s *server) fail(c *gin.Context, err error, msg string) {
	if public, ok := auth.PublicMessage(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": public})
		return
	}
	if public, ok := subscription.PublicMessage(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": public})
		return
	}
	if public, ok := engagement.PublicMessage(err); ok {
		c.JSON(http.StatusNotFound, gin.H{"error": public})
		return
	}

	errutil.LogErrorContext(c.Request.Context(), s.logger.With("route", c.FullPath()), msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": MessageInternal})
}
