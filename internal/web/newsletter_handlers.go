// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell/inkwell/internal/auth"
)

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=200"`
}

func (s *server) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": MessageInvalidEmail})
		return
	}
	res, err := s.cfg.Subscriptions.Subscribe(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		s.fail(c, err, "subscribe failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) confirm(c *gin.Context) {
	res, err := s.cfg.Subscriptions.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.fail(c, err, "confirm failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) unsubscribe(c *gin.Context) {
	res, err := s.cfg.Subscriptions.Unsubscribe(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.fail(c, err, "unsubscribe failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) likeSummary(c *gin.Context) {
	viewer := auth.SubscriberFromContext(c.Request.Context())
	res, err := s.cfg.Likes.Summary(c.Request.Context(), c.Param("slug"), viewer)
	if err != nil {
		s.fail(c, err, "get likes failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) toggleLike(c *gin.Context) {
	sub := auth.SubscriberFromContext(c.Request.Context())
	res, err := s.cfg.Likes.Toggle(c.Request.Context(), c.Param("slug"), sub)
	if err != nil {
		s.fail(c, err, "toggle like failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
