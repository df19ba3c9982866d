package gather

import (
	"errors"
	"fmt"

	"erdspy/internal/metadata"
)

// ColumnInitError reports a failure to read the columns of a physical table.
type ColumnInitError struct {
	Table string
	Err   error
}

func (e *ColumnInitError) Error() string {
	return fmt.Sprintf("columns of %s: %v", e.Table, e.Err)
}

func (e *ColumnInitError) Unwrap() error { return e.Err }

// TableError reports a failure to build indexes or keys of a physical table.
type TableError struct {
	Table string
	Op    string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s of %s: %v", e.Op, e.Table, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// IsConfigError reports whether err comes from an unusable custom statement.
func IsConfigError(err error) bool {
	var ice *metadata.InvalidConfigError
	return errors.As(err, &ice)
}
