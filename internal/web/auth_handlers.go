// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/inkwell/internal/auth"
)

type loginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	ReturnURL string `json:"returnUrl"`
}

func (s *server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(auth.SessionExpiry.Seconds()), "/", "", s.cfg.SecureCookies, true)
}

func (s *server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.cfg.SecureCookies, true)
}

// POST /api/auth/login
func (s *server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": MessageInvalidEmail})
		return
	}

	res, err := s.cfg.Logins.RequestMagicLink(c.Request.Context(), req.Email, req.ReturnURL)
	if err != nil {
		s.fail(c, err, "login request failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/auth/verify/:token
func (s *server) verify(c *gin.Context) {
	v, err := s.cfg.Logins.VerifyMagicLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.fail(c, err, "magic link verification failed")
		return
	}

	s.setSessionCookie(c, v.SessionToken)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"subscriber": v.Subscriber.View(),
	})
}

// GET /api/auth/me
func (s *server) me(c *gin.Context) {
	sub := auth.SubscriberFromContext(c.Request.Context())
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscriber": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriber": sub.View()})
}

// POST /api/auth/logout
func (s *server) logout(c *gin.Context) {
	if err := s.cfg.Sessions.InvalidateSession(c.Request.Context(), sessionToken(c)); err != nil {
		s.fail(c, err, "logout failed")
		return
	}

	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": auth.MessageLoggedOut})
}
