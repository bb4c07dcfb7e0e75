package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/terminally-online/paramsync/internal/introspect"
	"github.com/terminally-online/paramsync/internal/migrate"
	"github.com/terminally-online/paramsync/internal/sandbox"
	"github.com/terminally-online/paramsync/internal/schema"
)

func sandboxConfig() sandbox.Config {
	c := sandbox.DefaultConfig()
	c.Version = cfg.GetPostgresVersion(&flags)
	c.Database = cfg.GetDatabase(&flags)
	return c
}

func startSandbox(ctx context.Context) (*sandbox.Postgres, func(), error) {
	sc := sandboxConfig()

	fmt.Printf("Starting Postgres %s sandbox...\n", sc.Version)
	pg, err := sandbox.Start(ctx, sc)
	if err != nil {
		return nil, nil, err
	}

	stop := func() {
		fmt.Println("Stopping sandbox...")
		if err := pg.Terminate(context.Background()); err != nil {
			logger.Warn("failed to stop sandbox", zap.Error(err))
		}
	}
	return pg, stop, nil
}

// buildCurrentState replays every migration in migrationsDir against the
// sandbox and returns the resulting snapshot.
func buildCurrentState(ctx context.Context, pg *sandbox.Postgres, migrationsDir string) (*schema.Schema, error) {
	migrations, err := migrate.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}

	if len(migrations) == 0 {
		fmt.Println("No migrations found, starting from a clean database...")
	} else {
		fmt.Printf("Applying %d migration(s)...\n", len(migrations))
	}

	for _, m := range migrations {
		logger.Debug("replaying migration", zap.String("migration", m.Name))
		if err := pg.Exec(ctx, m.Content); err != nil {
			return nil, fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
	}

	fmt.Println("Introspecting current state...")
	current, err := introspect.Database(ctx, pg.ConnectionString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect current state: %w", err)
	}
	return current, nil
}

func loadDesired(databaseName string) (*schema.Schema, error) {
	desired, err := schema.LoadFile(cfg.GetDesired(&flags), databaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to load desired parameters: %w", err)
	}
	return desired, nil
}

// applyExclusions marks excluded parameters on both sides so diffing
// ignores them.
func applyExclusions(schemas ...*schema.Schema) error {
	patterns := cfg.GetExclude(&flags)
	for _, s := range schemas {
		n, err := s.Exclude(patterns)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("excluded parameters from synchronization", zap.String("database", s.Name), zap.Int("count", n))
		}
	}
	return nil
}
