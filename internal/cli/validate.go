package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terminally-online/paramsync/internal/diff"
	"github.com/terminally-online/paramsync/internal/introspect"
	"github.com/terminally-online/paramsync/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the parameters file",
	Long: `Validate the parameters file by applying it to a sandbox Postgres container.

This catches unknown parameter names and values the configured Postgres
version rejects, and warns about values the server stores in a different form
(such as 64MB stored as 65536), which would otherwise show up as drift.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		desired, err := loadDesired(cfg.GetDatabase(&flags))
		if err != nil {
			return err
		}

		warnings := desired.Lint()

		pg, stop, err := startSandbox(ctx)
		if err != nil {
			return err
		}
		defer stop()

		changes := diff.Compare(&schema.Schema{Name: desired.Name}, desired)
		statements := make([]string, 0, len(changes))
		for _, c := range changes {
			statements = append(statements, c.SQL())
		}

		fmt.Println("Applying parameters...")
		if len(statements) > 0 {
			if err := pg.Exec(ctx, strings.Join(statements, "\n")); err != nil {
				return fmt.Errorf("parameters validation failed: %w", err)
			}
		}

		fmt.Println("Introspecting sandbox...")
		stored, err := introspect.Database(ctx, pg.ConnectionString(), logger)
		if err != nil {
			return fmt.Errorf("failed to introspect sandbox: %w", err)
		}
		warnings = append(warnings, canonicalFormWarnings(desired, stored)...)

		if len(warnings) > 0 {
			fmt.Println("\nWarnings:")
			for _, w := range warnings {
				fmt.Printf("  - %s\n", w)
			}
			fmt.Println()
		}

		fmt.Printf("Parameters file is valid. Found %d parameter(s).\n", desired.ObjectCount())
		return nil
	},
}

// canonicalFormWarnings reports desired values that the server stores
// differently or does not report at all. Either would show up as a change
// on every diff.
func canonicalFormWarnings(desired, stored *schema.Schema) []string {
	var warnings []string
	for _, p := range desired.Parameters {
		actual, ok := stored.Lookup(p.Scope, p.Name)
		if !ok {
			warnings = append(warnings, missingStoredWarning(desired, p))
			continue
		}
		if actual.Value == p.Value {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s parameter %s is stored as %q, not %q; use the stored form to avoid perpetual diffs",
			p.Scope, p.Name, actual.Value, p.Value))
	}
	return warnings
}

func missingStoredWarning(desired *schema.Schema, p schema.Parameter) string {
	if p.Scope == schema.ScopeDatabase {
		if _, ok := desired.Lookup(schema.ScopeUser, p.Name); ok {
			return fmt.Sprintf("database parameter %s is hidden by the user-level value and will be set again by every migration; keep it at one level", p.Name)
		}
	}
	return fmt.Sprintf("%s parameter %s is not reported by the server after being applied and will be set again by every migration", p.Scope, p.Name)
}
