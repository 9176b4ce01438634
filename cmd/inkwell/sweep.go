// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/inkwell/inkwell/internal/auth"
	authpg "github.com/inkwell/inkwell/internal/auth/postgres"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return newSweepCmd(nil)
}

func newSweepCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions and magic links once",
		Long: `Delete expired sessions and magic links and exit. The serve
command runs the same sweep on a schedule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := deps.withDefaults()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireDatabase(cfg); err != nil {
				return err
			}
			logger, err := setupLogging(cfg, d.LogWriter)
			if err != nil {
				return err
			}

			db, err := d.DBFactory(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := auth.NewSessionService(
				authpg.NewSessionRepository(db),
				authpg.NewMagicLinkRepository(db),
				auth.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			res, err := sessions.CleanupExpired(cmd.Context())
			cmd.Printf("Deleted %d expired session(s) and %d expired magic link(s)\n", res.Sessions, res.MagicLinks)
			return err
		},
	}
}
