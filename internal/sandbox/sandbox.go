// Package sandbox runs throwaway PostgreSQL containers used to replay
// migrations and to check parameter files against a real server.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Config struct {
	Version  string
	User     string
	Password string
	Database string
}

func DefaultConfig() Config {
	return Config{
		Version:  "16",
		User:     "paramsync",
		Password: "paramsync",
		Database: "paramsync",
	}
}

func (c Config) Image() string {
	return fmt.Sprintf("postgres:%s", c.Version)
}

type Postgres struct {
	container *postgres.PostgresContainer
	connStr   string
	cfg       Config
}

// Start launches a container and waits until it accepts connections.
func Start(ctx context.Context, cfg Config) (*Postgres, error) {
	def := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.User == "" {
		cfg.User = def.User
	}
	if cfg.Password == "" {
		cfg.Password = def.Password
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}

	ctr, err := postgres.Run(ctx,
		cfg.Image(),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Password),
		postgres.WithDatabase(cfg.Database),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &Postgres{container: ctr, connStr: connStr, cfg: cfg}, nil
}

func (p *Postgres) ConnectionString() string {
	return p.connStr
}

func (p *Postgres) Database() string {
	return p.cfg.Database
}

// Exec runs sql as a single simple-protocol batch on a fresh connection.
func (p *Postgres) Exec(ctx context.Context, sql string) error {
	conn, err := pgx.Connect(ctx, p.connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to sandbox: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Reset removes every database and role level setting so the sandbox can
// be reused for another snapshot.
func (p *Postgres) Reset(ctx context.Context) error {
	return p.Exec(ctx, fmt.Sprintf(`
		ALTER DATABASE %s RESET ALL;
		ALTER ROLE CURRENT_USER RESET ALL;
	`, pgx.Identifier{p.cfg.Database}.Sanitize()))
}

func (p *Postgres) Terminate(ctx context.Context) error {
	if err := p.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}
