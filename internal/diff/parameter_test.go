package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminally-online/paramsync/internal/schema"
)

func param(scope schema.Scope, name, value string) schema.Parameter {
	return schema.Parameter{
		Name:         name,
		Value:        value,
		DatabaseName: "app_db",
		Scope:        scope,
		Synchronize:  true,
	}
}

func TestCompare_SetParameter(t *testing.T) {
	current := &schema.Schema{Name: "app_db"}
	desired := &schema.Schema{
		Name: "app_db",
		Parameters: []schema.Parameter{
			param(schema.ScopeDatabase, "work_mem", "64MB"),
			param(schema.ScopeUser, "statement_timeout", "30000"),
		},
	}

	changes := Compare(current, desired)
	require.Len(t, changes, 2)

	assert.Equal(t, SetParameter, changes[0].Type())
	assert.Equal(t, "work_mem", changes[0].ObjectName())
	assert.Equal(t, "ALTER DATABASE app_db SET work_mem = '64MB';", changes[0].SQL())
	assert.Equal(t, "ALTER DATABASE app_db RESET work_mem;", changes[0].DownSQL())
	assert.True(t, changes[0].IsReversible())

	assert.Equal(t, SetParameter, changes[1].Type())
	assert.Equal(t, "ALTER ROLE CURRENT_USER SET statement_timeout = '30000';", changes[1].SQL())
	assert.Equal(t, "ALTER ROLE CURRENT_USER RESET statement_timeout;", changes[1].DownSQL())
}

func TestCompare_AlterParameter(t *testing.T) {
	current := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "work_mem", "32MB"),
	}}
	desired := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "work_mem", "64MB"),
	}}

	changes := Compare(current, desired)
	require.Len(t, changes, 1)

	assert.Equal(t, AlterParameter, changes[0].Type())
	assert.Equal(t, "ALTER DATABASE app_db SET work_mem = '64MB';", changes[0].SQL())
	assert.Equal(t, "ALTER DATABASE app_db SET work_mem = '32MB';", changes[0].DownSQL())
	assert.True(t, changes[0].IsReversible())
}

func TestCompare_ResetParameter(t *testing.T) {
	current := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeUser, "statement_timeout", "30000"),
	}}
	desired := &schema.Schema{}

	changes := Compare(current, desired)
	require.Len(t, changes, 1)

	assert.Equal(t, ResetParameter, changes[0].Type())
	assert.Equal(t, "ALTER ROLE CURRENT_USER RESET statement_timeout;", changes[0].SQL())
	assert.Equal(t, "ALTER ROLE CURRENT_USER SET statement_timeout = '30000';", changes[0].DownSQL())
	assert.True(t, changes[0].IsReversible())
}

func TestCompare_NoChanges(t *testing.T) {
	params := []schema.Parameter{
		param(schema.ScopeDatabase, "work_mem", "64MB"),
		param(schema.ScopeUser, "work_mem", "128MB"),
	}

	changes := Compare(&schema.Schema{Parameters: params}, &schema.Schema{Parameters: params})
	assert.Empty(t, changes)
}

func TestCompare_ScopesAreIndependent(t *testing.T) {
	current := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "work_mem", "64MB"),
	}}
	desired := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeUser, "work_mem", "64MB"),
	}}

	changes := Compare(current, desired)
	require.Len(t, changes, 2)
	assert.Equal(t, SetParameter, changes[0].Type())
	assert.Contains(t, changes[0].SQL(), "ALTER ROLE CURRENT_USER")
	assert.Equal(t, ResetParameter, changes[1].Type())
	assert.Contains(t, changes[1].SQL(), "ALTER DATABASE app_db")
}

func TestCompare_SkipsUnsynchronized(t *testing.T) {
	excluded := param(schema.ScopeDatabase, "max_connections", "200")
	excluded.Synchronize = false

	excludedCurrent := param(schema.ScopeDatabase, "jit", "off")
	excludedCurrent.Synchronize = false

	current := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "max_connections", "100"),
		excludedCurrent,
		param(schema.ScopeDatabase, "idle_session_timeout", "0"),
	}}
	desired := &schema.Schema{Parameters: []schema.Parameter{
		excluded,
		param(schema.ScopeDatabase, "jit", "on"),
	}}

	changes := Compare(current, desired)
	require.Len(t, changes, 1)
	assert.Equal(t, ResetParameter, changes[0].Type())
	assert.Equal(t, "idle_session_timeout", changes[0].ObjectName())
}

func TestCompare_Order(t *testing.T) {
	current := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "b_removed", "1"),
		param(schema.ScopeDatabase, "changed", "1"),
		param(schema.ScopeDatabase, "a_removed", "1"),
	}}
	desired := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "z_added", "1"),
		param(schema.ScopeDatabase, "changed", "2"),
		param(schema.ScopeDatabase, "a_added", "1"),
	}}

	changes := Compare(current, desired)

	var got []string
	for _, c := range changes {
		got = append(got, c.Type().String()+" "+c.ObjectName())
	}
	assert.Equal(t, []string{
		"set z_added",
		"alter changed",
		"set a_added",
		"reset b_removed",
		"reset a_removed",
	}, got)
}

func TestParameterChange_IrreversibleWithoutOldValue(t *testing.T) {
	c := &ParameterChange{
		ChangeType: AlterParameter,
		Parameter:  param(schema.ScopeDatabase, "work_mem", "64MB"),
	}

	assert.False(t, c.IsReversible())
	assert.Contains(t, c.DownSQL(), "-- IRREVERSIBLE")
}

func TestParameterName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"work_mem", "work_mem"},
		{"TimeZone", "TimeZone"},
		{"auto_explain.log_min_duration", "auto_explain.log_min_duration"},
		{"app.tenant_id", "app.tenant_id"},
		{"pg_stat_statements.max", "pg_stat_statements.max"},
		{"my-setting", `"my-setting"`},
		{"1bad", `"1bad"`},
		{`we"ird`, `"we""ird"`},
		{"", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parameterName(tt.input))
		})
	}
}

func TestParameterValue(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value string
		want  string
	}{
		{"size", "work_mem", "64MB", "'64MB'"},
		{"number", "statement_timeout", "30000", "'30000'"},
		{"empty", "application_name", "", "''"},
		{"single quote", "application_name", "it's", "'it''s'"},
		{"comma in scalar", "application_name", "billing,eu", "'billing,eu'"},
		{"quoted scalar", "default_text_search_config", `"pg_catalog.english"`, `'"pg_catalog.english"'`},
		{"search path", "search_path", `"$user", public`, `'$user', 'public'`},
		{"quoted list element", "search_path", `"My Schema"`, `'My Schema'`},
		{"embedded quote", "search_path", `"we""ird", app`, `'we"ird', 'app'`},
		{"comma inside quotes", "search_path", `"a,b", c`, `'a,b', 'c'`},
		{"datestyle mixed case name", "DateStyle", "ISO, MDY", "'ISO', 'MDY'"},
		{"empty list", "search_path", "", "''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parameterValue(tt.param, tt.value))
		})
	}
}

func TestCompare_ListAndScalarValues(t *testing.T) {
	desired := &schema.Schema{Parameters: []schema.Parameter{
		param(schema.ScopeDatabase, "application_name", "billing,eu"),
		param(schema.ScopeDatabase, "search_path", `"My Schema", public`),
	}}

	changes := Compare(&schema.Schema{}, desired)
	require.Len(t, changes, 2)

	assert.Equal(t, "ALTER DATABASE app_db SET application_name = 'billing,eu';", changes[0].SQL())
	assert.Equal(t, "ALTER DATABASE app_db SET search_path = 'My Schema', 'public';", changes[1].SQL())
}

func TestAlterTarget_QuotesDatabase(t *testing.T) {
	p := param(schema.ScopeDatabase, "work_mem", "64MB")
	p.DatabaseName = "App-DB"

	assert.Equal(t, `ALTER DATABASE "App-DB" SET work_mem = '64MB';`, setParameterSQL(p))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "app_db", quoteIdent("app_db"))
	assert.Equal(t, `"user"`, quoteIdent("user"))
	assert.Equal(t, `"MixedCase"`, quoteIdent("MixedCase"))
	assert.Equal(t, "", quoteIdent(""))
}
