package introspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/terminally-online/paramsync/internal/schema"
)

// Querier is the read-only query capability readers need. *pgx.Conn,
// pgx.Tx and *pgxpool.Pool all satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Reader produces one facet of a database snapshot.
type Reader func(ctx context.Context, q Querier, databaseName string, log *zap.Logger) (schema.Fragment, error)

var readers = []Reader{
	ReadParameters,
}

// Database connects to databaseURL and returns a snapshot of the database
// the connection lands in.
func Database(ctx context.Context, databaseURL string, log *zap.Logger) (*schema.Schema, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	var name string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return nil, &QueryExecutionError{Query: "current_database()", Err: err}
	}

	s := &schema.Schema{Name: name}
	if err := Load(ctx, conn, s, log); err != nil {
		return nil, err
	}

	return s, nil
}

// Load runs every reader against q and merges their output into s.
// Either every reader succeeds and all records are appended, or s is left
// untouched. Each call appends, so a schema should be loaded once.
//
// s must not be mutated concurrently while Load runs.
func Load(ctx context.Context, q Querier, s *schema.Schema, log *zap.Logger) error {
	if s == nil {
		return &SchemaStateError{Reason: "schema is nil"}
	}
	if s.Name == "" {
		return &SchemaStateError{Reason: "database name is not set"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	fragments := make([]schema.Fragment, 0, len(readers))
	for _, read := range readers {
		f, err := read(ctx, q, s.Name, log)
		if err != nil {
			return err
		}
		fragments = append(fragments, f)
	}

	s.Merge(fragments...)
	return nil
}
