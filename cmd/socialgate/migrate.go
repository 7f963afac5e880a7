package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dropDatabas3/socialgate/internal/store/pg"
	migrations "github.com/dropDatabas3/socialgate/migrations/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the embedded PostgreSQL migrations",
	}

	run := func(cmd *cobra.Command, down bool, steps int) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if cfg.Storage.DSN == "" {
			return errors.New("migrate: storage.dsn (or DATABASE_URL) is required")
		}
		pool, err := pgxpool.New(cmd.Context(), cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("pgxpool: %w", err)
		}
		defer pool.Close()

		m := pg.NewMigrator(migrations.FS, ".")
		var res *pg.MigrationResult
		if down {
			res, err = m.Down(cmd.Context(), pool, steps)
		} else {
			res, err = m.Up(cmd.Context(), pool)
		}
		if res != nil {
			verb := "applied"
			if down {
				verb = "reverted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v, skipped %v (%s)\n", verb, res.Applied, res.Skipped, res.Duration.Round(time.Millisecond))
		}
		return err
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, 0)
		},
	}
	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Revert the most recent migrations (default 1, 0 = all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("steps must be a non-negative integer, got %q", args[0])
				}
				steps = n
			}
			return run(cmd, true, steps)
		},
	}
	cmd.AddCommand(up, down)
	return cmd
}
