package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/terminally-online/paramsync/internal/schema"
)

func catalogRows() [][]any {
	return [][]any{
		{"work_mem", "64MB", "database"},
		{"statement_timeout", "30000", "user"},
		{"TimeZone", "UTC", "session"},
	}
}

func TestReadParameters(t *testing.T) {
	q := &fakeQuerier{rows: catalogRows()}

	f, err := ReadParameters(context.Background(), q, "app_db", nil)
	require.NoError(t, err)

	assert.Equal(t, []schema.Parameter{
		{Name: "work_mem", Value: "64MB", DatabaseName: "app_db", Scope: schema.ScopeDatabase, Synchronize: true},
		{Name: "statement_timeout", Value: "30000", DatabaseName: "app_db", Scope: schema.ScopeUser, Synchronize: true},
	}, f.Parameters)

	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0], "pg_catalog.pg_settings")
	assert.Contains(t, q.queries[0], "source IN ('database', 'user')")
}

func TestReadParameters_LogsUnexpectedSource(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	q := &fakeQuerier{rows: [][]any{
		{"work_mem", "64MB", "database"},
		{"search_path", "app", "database user"},
		{"TimeZone", "UTC", "session"},
	}}

	f, err := ReadParameters(context.Background(), q, "app_db", zap.New(core))
	require.NoError(t, err)
	require.Len(t, f.Parameters, 1)

	entries := logs.FilterMessage("skipping parameter with unexpected source").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "search_path", entries[0].ContextMap()["parameter"])
	assert.Equal(t, "database user", entries[0].ContextMap()["source"])
	assert.Equal(t, "TimeZone", entries[1].ContextMap()["parameter"])
}

func TestReadParameters_SameNameInBothScopes(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		{"work_mem", "64MB", "database"},
		{"work_mem", "128MB", "user"},
	}}

	f, err := ReadParameters(context.Background(), q, "app_db", nil)
	require.NoError(t, err)
	require.Len(t, f.Parameters, 2)
	assert.Equal(t, schema.ScopeDatabase, f.Parameters[0].Scope)
	assert.Equal(t, schema.ScopeUser, f.Parameters[1].Scope)
}

func TestReadParameters_NoRows(t *testing.T) {
	f, err := ReadParameters(context.Background(), &fakeQuerier{}, "app_db", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Parameters)
}

func TestReadParameters_MissingDatabaseName(t *testing.T) {
	q := &fakeQuerier{rows: catalogRows()}

	_, err := ReadParameters(context.Background(), q, "", nil)

	var stateErr *SchemaStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Empty(t, q.queries, "no query should be issued")
}

func TestReadParameters_Errors(t *testing.T) {
	connErr := errors.New("conn closed")

	tests := []struct {
		name string
		q    *fakeQuerier
	}{
		{"query fails", &fakeQuerier{queryErr: connErr}},
		{"iteration fails", &fakeQuerier{rows: catalogRows(), iterErr: connErr}},
		{"malformed row", &fakeQuerier{rows: [][]any{
			{"work_mem", "64MB", "database"},
			{"statement_timeout", "30000"},
		}}},
		{"wrong column type", &fakeQuerier{rows: [][]any{
			{"work_mem", 64, "database"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadParameters(context.Background(), tt.q, "app_db", nil)
			require.Error(t, err)

			var queryErr *QueryExecutionError
			require.True(t, errors.As(err, &queryErr))
			assert.Equal(t, "pg_settings", queryErr.Query)
			assert.Empty(t, f.Parameters)
		})
	}
}

func TestReadParameters_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadParameters(ctx, &fakeQuerier{rows: catalogRows()}, "app_db", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoad_AppendsAfterExisting(t *testing.T) {
	existing := []schema.Parameter{
		{Name: "a", Value: "1", DatabaseName: "app_db", Scope: schema.ScopeDatabase, Synchronize: true},
		{Name: "b", Value: "2", DatabaseName: "app_db", Scope: schema.ScopeUser, Synchronize: false},
	}
	s := &schema.Schema{Name: "app_db", Parameters: append([]schema.Parameter(nil), existing...)}

	err := Load(context.Background(), &fakeQuerier{rows: catalogRows()}, s, nil)
	require.NoError(t, err)

	require.Len(t, s.Parameters, 4)
	assert.Equal(t, existing, s.Parameters[:2])
	assert.Equal(t, "work_mem", s.Parameters[2].Name)
	assert.Equal(t, "statement_timeout", s.Parameters[3].Name)
	for _, p := range s.Parameters[2:] {
		assert.Equal(t, "app_db", p.DatabaseName)
		assert.True(t, p.Synchronize)
	}
}

func TestLoad_TwiceDuplicates(t *testing.T) {
	s := &schema.Schema{Name: "app_db"}
	q := &fakeQuerier{rows: catalogRows()}

	require.NoError(t, Load(context.Background(), q, s, nil))
	require.NoError(t, Load(context.Background(), q, s, nil))

	assert.Len(t, s.Parameters, 4)
}

func TestLoad_FailureLeavesSchemaUnchanged(t *testing.T) {
	existing := []schema.Parameter{
		{Name: "a", Value: "1", DatabaseName: "app_db", Scope: schema.ScopeDatabase, Synchronize: true},
	}
	s := &schema.Schema{Name: "app_db", Parameters: append([]schema.Parameter(nil), existing...)}

	err := Load(context.Background(), &fakeQuerier{rows: catalogRows(), iterErr: errors.New("connection reset")}, s, nil)
	require.Error(t, err)
	assert.Equal(t, existing, s.Parameters)
}

func TestLoad_InvalidSchema(t *testing.T) {
	var stateErr *SchemaStateError

	err := Load(context.Background(), &fakeQuerier{}, nil, nil)
	require.True(t, errors.As(err, &stateErr))

	err = Load(context.Background(), &fakeQuerier{}, &schema.Schema{}, nil)
	require.True(t, errors.As(err, &stateErr))
	assert.Contains(t, err.Error(), "database name is not set")
}
