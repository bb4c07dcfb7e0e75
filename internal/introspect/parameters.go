package introspect

import (
	"context"

	"go.uber.org/zap"

	"github.com/terminally-online/paramsync/internal/schema"
)

const parametersQuery = `
	SELECT name, setting, source
	FROM pg_catalog.pg_settings
	WHERE source IN ('database', 'user')
`

// ReadParameters returns every runtime setting whose value was set at the
// database or user level. Session, default and file-level settings are
// never reported. Records are returned in catalog order and always have
// Synchronize set.
//
// Nothing is returned unless the whole result set was read successfully.
func ReadParameters(ctx context.Context, q Querier, databaseName string, log *zap.Logger) (schema.Fragment, error) {
	if databaseName == "" {
		return schema.Fragment{}, &SchemaStateError{Reason: "database name is not set"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	rows, err := q.Query(ctx, parametersQuery)
	if err != nil {
		return schema.Fragment{}, &QueryExecutionError{Query: "pg_settings", Err: err}
	}
	defer rows.Close()

	var params []schema.Parameter
	for rows.Next() {
		var name, value, source string
		if err := rows.Scan(&name, &value, &source); err != nil {
			return schema.Fragment{}, &QueryExecutionError{Query: "pg_settings", Err: err}
		}

		scope, err := schema.ParseScope(source)
		if err != nil {
			log.Warn("skipping parameter with unexpected source",
				zap.String("parameter", name),
				zap.String("source", source),
				zap.String("database", databaseName),
			)
			continue
		}

		params = append(params, schema.Parameter{
			Name:         name,
			Value:        value,
			DatabaseName: databaseName,
			Scope:        scope,
			Synchronize:  true,
		})
	}
	if err := rows.Err(); err != nil {
		return schema.Fragment{}, &QueryExecutionError{Query: "pg_settings", Err: err}
	}

	log.Debug("read parameters", zap.String("database", databaseName), zap.Int("count", len(params)))

	return schema.Fragment{Parameters: params}, nil
}
