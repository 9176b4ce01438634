// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import "github.com/inkwell/inkwell/internal/store"

// Pool is the connection surface shared by all repositories.
type Pool = store.Pool
