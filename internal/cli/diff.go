package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terminally-online/paramsync/internal/diff"
	"github.com/terminally-online/paramsync/internal/introspect"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between the database and the parameters file",
	Long: `Compare the live database parameters against the desired parameters file
and print the SQL that would synchronize them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}

		fmt.Println("Introspecting database...")
		current, err := introspect.Database(ctx, dbURL, logger)
		if err != nil {
			return fmt.Errorf("failed to introspect database: %w", err)
		}

		desired, err := loadDesired(current.Name)
		if err != nil {
			return err
		}

		if err := applyExclusions(current, desired); err != nil {
			return err
		}

		changes := diff.Compare(current, desired)
		if len(changes) == 0 {
			fmt.Println("\nNo changes detected. Parameters are in sync.")
			return nil
		}

		fmt.Printf("\nFound %d change(s):\n\n", len(changes))
		for _, change := range changes {
			fmt.Println(change.SQL())
		}

		return nil
	},
}
