// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package auth provides passwordless authentication for Inkwell subscribers.
//
// # Domain Types
//
// Domain types (Subscriber, MagicLink, Session) should be created
// using their respective constructors:
//   - NewSubscriber - creates a pending Subscriber with fresh confirm/unsubscribe tokens
//   - NewMagicLink - creates a MagicLink with a 15 minute lifetime
//   - NewSession - creates a Session with a 30 day lifetime
//
// Plaintext tokens never reach a repository. Repositories store and look up
// the SHA-256 digest returned by HashToken.
//
// # Services
//
// Service types coordinate domain operations:
//   - MagicLinkService - login link issuance and redemption
//   - SessionService - session creation, validation, logout and the expiry sweep
//
// Services are created with New*Service constructors that validate dependencies.
package auth
