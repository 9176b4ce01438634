// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package mail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/inkwell/inkwell/internal/auth"
)

var _ auth.MagicLinkSender = (*LogSender)(nil)

// LogSender writes links to the log instead of sending email. It is used
// in development when no API key is configured.
type LogSender struct {
	logger      *slog.Logger
	frontendURL string
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default.
func NewLogSender(logger *slog.Logger, frontendURL string) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (s *LogSender) SendMagicLink(ctx context.Context, email, token, returnURL string) error {
	s.logger.InfoContext(ctx, "login link (not sent)", "to", email, "url", VerifyURL(s.frontendURL, token, returnURL))
	return nil
}

func (s *LogSender) SendConfirmation(ctx context.Context, email, token, _ string) error {
	s.logger.InfoContext(ctx, "confirmation link (not sent)", "to", email, "url", s.frontendURL+"/confirm/"+token)
	return nil
}

func (s *LogSender) SendUnsubscribeNotice(ctx context.Context, email string) error {
	s.logger.InfoContext(ctx, "unsubscribe notice (not sent)", "to", email)
	return nil
}
