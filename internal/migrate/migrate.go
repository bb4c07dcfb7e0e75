package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const migrationsTable = "paramsync_migrations"

// Tracker records which migrations from a directory have been applied to
// a database. It holds one connection until Close.
type Tracker struct {
	conn *pgx.Conn
	dir  string
}

// Open connects to databaseURL and makes sure the tracking table exists.
func Open(ctx context.Context, databaseURL, dir string) (*Tracker, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	t := &Tracker{conn: conn, dir: dir}
	if err := t.ensureTable(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	return t, nil
}

func (t *Tracker) Close(ctx context.Context) error {
	return t.conn.Close(ctx)
}

func (t *Tracker) ensureTable(ctx context.Context) error {
	_, err := t.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			checksum TEXT NOT NULL DEFAULT ''
		)
	`, migrationsTable))
	return err
}

func (t *Tracker) Applied(ctx context.Context) ([]Migration, error) {
	rows, err := t.conn.Query(ctx, fmt.Sprintf(`
		SELECT name, applied_at, checksum
		FROM %s
		ORDER BY name
	`, migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Name, &m.AppliedAt, &m.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	return migrations, nil
}

// AppliedWithStatus is Applied with Modified set for migrations whose file
// changed or disappeared since they were applied.
func (t *Tracker) AppliedWithStatus(ctx context.Context) ([]Migration, error) {
	applied, err := t.Applied(ctx)
	if err != nil {
		return nil, err
	}

	files, err := ReadDir(t.dir)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]Migration, len(files))
	for _, f := range files {
		onDisk[f.Name] = f
	}

	for i, m := range applied {
		f, ok := onDisk[m.Name]
		if !ok {
			applied[i].Modified = true
			continue
		}
		applied[i].Content = f.Content
		if m.Checksum != "" && m.Checksum != f.Checksum {
			applied[i].Modified = true
		}
	}

	return applied, nil
}

func (t *Tracker) Modified(ctx context.Context) ([]Migration, error) {
	applied, err := t.AppliedWithStatus(ctx)
	if err != nil {
		return nil, err
	}

	var modified []Migration
	for _, m := range applied {
		if m.Modified {
			modified = append(modified, m)
		}
	}
	return modified, nil
}

func (t *Tracker) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := t.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Name] = true
	}

	files, err := ReadDir(t.dir)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, f := range files {
		if !done[f.Name] {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// Apply runs the migration and records it in a single transaction.
func (t *Tracker) Apply(ctx context.Context, m Migration) error {
	checksum := m.Checksum
	if checksum == "" {
		checksum = ComputeChecksum(m.Content)
	}

	return pgx.BeginFunc(ctx, t.conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.Content); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (name, checksum) VALUES ($1, $2)
		`, migrationsTable), m.Name, checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// Rollbackable returns up to count of the most recently applied migrations,
// newest first, with Content holding their down SQL.
func (t *Tracker) Rollbackable(ctx context.Context, count int) ([]Migration, error) {
	applied, err := t.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if count > len(applied) {
		count = len(applied)
	}

	var rollbackable []Migration
	for i := len(applied) - 1; i >= len(applied)-count; i-- {
		down, err := ReadDown(t.dir, applied[i].Name)
		if err != nil {
			return nil, err
		}
		rollbackable = append(rollbackable, Migration{
			Name:    applied[i].Name,
			Content: down,
		})
	}

	return rollbackable, nil
}

func (t *Tracker) Rollback(ctx context.Context, m Migration) error {
	return pgx.BeginFunc(ctx, t.conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.Content); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			DELETE FROM %s WHERE name = $1
		`, migrationsTable), m.Name); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}
