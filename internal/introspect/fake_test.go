package introspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeQuerier struct {
	rows     [][]any
	queryErr error
	iterErr  error
	queries  []string
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{ctx: ctx, data: f.rows, iterErr: f.iterErr, pos: -1}, nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	return fakeRow{err: f.queryErr}
}

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.err
}

type fakeRows struct {
	ctx     context.Context
	data    [][]any
	iterErr error
	pos     int
	err     error
	closed  bool
}

func (r *fakeRows) Close() { r.closed = true }

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return false
	}
	r.pos++
	if r.pos >= len(r.data) {
		if r.iterErr != nil {
			r.err = r.iterErr
		}
		return false
	}
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("number of field descriptions must equal number of destinations, got %d and %d", len(row), len(dest))
	}
	for i, v := range row {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %d: cannot scan %T into string", i, v)
		}
		ptr, ok := dest[i].(*string)
		if !ok {
			return errors.New("destination is not *string")
		}
		*ptr = s
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos], nil }

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }
