package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terminally-online/paramsync/internal/introspect"
)

var (
	outputFile string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the current database parameters",
	Long: `Inspect the live database and print its database and role level parameters
in the desired parameters file format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbURL, err := cfg.GetDatabaseURL(&flags)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "Connecting to database...")
		current, err := introspect.Database(ctx, dbURL, logger)
		if err != nil {
			return fmt.Errorf("failed to introspect database: %w", err)
		}

		out, err := current.ToYAML()
		if err != nil {
			return fmt.Errorf("failed to render parameters: %w", err)
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, out, 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Printf("Parameters of %s written to %s\n", current.Name, outputFile)
			return nil
		}

		fmt.Print(string(out))
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
}
