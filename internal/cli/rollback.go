package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	rollbackCount  int
	rollbackDryRun bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore the parameter values from before the last migration(s)",
	Long: `Undo the most recently recorded migrations, newest first, by running their
.down.sql files. Each down file restores the previous value of every parameter
its migration touched, or resets parameters the migration introduced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if rollbackCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		tracker, err := openTracker(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tracker.Close(context.Background()) }()

		targets, err := tracker.Rollbackable(ctx, rollbackCount)
		if err != nil {
			return fmt.Errorf("failed to collect migrations to undo: %w", err)
		}

		if len(targets) == 0 {
			fmt.Println("No recorded migrations; parameters are already at their starting point.")
			return nil
		}

		if rollbackDryRun {
			fmt.Printf("Would undo %d migration(s), newest first:\n", len(targets))
			for _, m := range targets {
				fmt.Printf("\n-- undo %s\n%s\n", m.Name, m.Content)
			}
			return nil
		}

		for i, m := range targets {
			fmt.Printf("[%d/%d] undo %s ", i+1, len(targets), m.Name)
			if err := tracker.Rollback(ctx, m); err != nil {
				fmt.Println("failed")
				return fmt.Errorf("failed to undo migration %s: %w", m.Name, err)
			}
			fmt.Println("done")
		}

		fmt.Printf("\nRestored parameters from before %d migration(s).\n", len(targets))
		return nil
	},
}

func init() {
	rollbackCmd.Flags().IntVarP(&rollbackCount, "count", "n", 1, "number of migrations to undo")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "print the down SQL without running it")
}
