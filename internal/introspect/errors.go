package introspect

import "fmt"

// QueryExecutionError is returned when a catalog query cannot be run,
// yields rows of an unexpected shape, or fails while iterating.
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("failed to query %s: %v", e.Query, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// SchemaStateError is returned when a reader is invoked on a schema that
// is not ready to receive records, such as one without a database name.
type SchemaStateError struct {
	Reason string
}

func (e *SchemaStateError) Error() string {
	return "invalid schema state: " + e.Reason
}
