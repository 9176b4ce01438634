// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes returned by VerifyMagicLink.
const (
	CodeMagicLinkInvalid = "MAGIC_LINK_INVALID"
	CodeMagicLinkUsed    = "MAGIC_LINK_USED"
	CodeMagicLinkExpired = "MAGIC_LINK_EXPIRED"
	CodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
)

// CodeTokenCollision is returned by repositories when a token digest violates
// a unique constraint.
const CodeTokenCollision = "TOKEN_COLLISION"

// User-facing messages.
const (
	MessageCheckEmail = "If you have an account, check your email for the login link."
	MessageSendFailed = "Failed to send login email. Please try again."
	MessageLoggedOut  = "Logged out successfully"
)

var publicMessages = map[string]string{
	CodeMagicLinkInvalid: "Invalid or expired link",
	CodeMagicLinkUsed:    "This link has already been used",
	CodeMagicLinkExpired: "This link has expired",
	CodeAccountNotFound:  "Account not found",
}

// PublicMessage returns the message that may be shown to a client for err.
// The second result is false when err carries no client-safe code.
func PublicMessage(err error) (string, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	code, ok := oopsErr.Code().(string)
	if !ok {
		return "", false
	}
	msg, ok := publicMessages[code]
	return msg, ok
}

func verifyError(code string) error {
	return oops.Code(code).Errorf("%s", publicMessages[code])
}
