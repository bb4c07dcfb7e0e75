package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terminally-online/paramsync/internal/diff"
	"github.com/terminally-online/paramsync/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Generate a migration from parameter differences",
	Long: `Compare the parameters file to the migrations and generate a new migration file.

This starts a sandbox Postgres container named like the target database, replays
all existing migrations, then diffs the result against the desired parameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		migrationsDir := cfg.GetMigrationsDir(&flags)

		desired, err := loadDesired(cfg.GetDatabase(&flags))
		if err != nil {
			return err
		}
		if err := applyExclusions(desired); err != nil {
			return err
		}

		pg, stop, err := startSandbox(ctx)
		if err != nil {
			return err
		}
		defer stop()

		current, err := buildCurrentState(ctx, pg, migrationsDir)
		if err != nil {
			return err
		}

		if err := applyExclusions(current); err != nil {
			return err
		}

		changes := diff.Compare(current, desired)
		if len(changes) == 0 {
			fmt.Println("\nNo changes detected. Nothing to migrate.")
			return nil
		}

		gen, err := migrate.Write(migrationsDir, changes, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("\nCreated migration: %s\n", gen.UpPath)
		fmt.Printf("Created rollback:  %s\n", gen.DownPath)
		fmt.Printf("Contains %d change(s)\n", gen.Changes)
		if len(gen.Irreversible) > 0 {
			fmt.Printf("\nWARNING: Some changes are not fully reversible: %v. Review the down migration carefully.\n", gen.Irreversible)
		}
		return nil
	},
}
