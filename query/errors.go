package query

import "fmt"

// Exception wraps any compile- or execution-time failure with the SQL and
// bindings that produced it (spec §7 QueryException). The builder's own
// state is left untouched; there is no retry at this layer.
type Exception struct {
	SQL      string
	Bindings []any
	Cause    error
}

func (e *Exception) Error() string {
	return fmt.Sprintf("query: %v (sql=%q bindings=%v)", e.Cause, e.SQL, e.Bindings)
}

func (e *Exception) Unwrap() error { return e.Cause }

func wrapException(sqlStr string, bindings []any, cause error) error {
	if cause == nil {
		return nil
	}
	return &Exception{SQL: sqlStr, Bindings: bindings, Cause: cause}
}
