package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terminally-online/paramsync/internal/migrate"
)

const appliedAtLayout = "2006-01-02 15:04:05"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which parameter migrations the database has recorded",
	Long: `List the migrations recorded in the target database next to the ones still
waiting in the migrations directory. A recorded migration whose file has
changed or disappeared since it ran is flagged as drifted: the database's
parameters may no longer match what the directory describes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tracker, err := openTracker(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tracker.Close(context.Background()) }()

		applied, err := tracker.AppliedWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration history: %w", err)
		}

		pending, err := tracker.Pending(ctx)
		if err != nil {
			return fmt.Errorf("failed to list waiting migrations: %w", err)
		}

		printStatus(cmd.OutOrStdout(), applied, pending)
		return nil
	},
}

func printStatus(w io.Writer, applied, pending []migrate.Migration) {
	if len(applied) == 0 && len(pending) == 0 {
		fmt.Fprintln(w, "Nothing recorded and nothing waiting.")
		return
	}

	var drifted []string
	for _, m := range applied {
		mark := "="
		if m.Modified {
			mark = "~"
			drifted = append(drifted, m.Name)
		}
		fmt.Fprintf(w, "%s %s  ran %s\n", mark, m.Name, m.AppliedAt.Format(appliedAtLayout))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "> %s  waiting\n", m.Name)
	}

	fmt.Fprintf(w, "\n%d recorded, %d waiting", len(applied), len(pending))
	if len(drifted) > 0 {
		fmt.Fprintf(w, ", %d drifted", len(drifted))
	}
	fmt.Fprintln(w)

	if len(drifted) > 0 {
		fmt.Fprintln(w, "\nDrifted migrations no longer match the file that ran:")
		for _, name := range drifted {
			fmt.Fprintf(w, "  %s\n", name)
		}
		fmt.Fprintln(w, "Run `paramsync diff` to see how the live parameters compare to the desired file.")
	}
}
