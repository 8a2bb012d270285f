package replica

import (
	"fmt"
	"strings"
)

// MissingColumnError reports that a store rejected a payload because the
// named column does not exist in its schema. Store implementations map their
// driver's structured error (Postgres SQLSTATE 42703) into this type.
type MissingColumnError struct {
	Table  string
	Column string
}

func (err *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q has no column %q", err.Table, err.Column)
}

// RetryExhaustedError is returned when the auto-drop policy hit its attempt
// bound: the mirror schema is missing more columns than can reasonably be
// stripped, or the failure is not column-related after all.
type RetryExhaustedError struct {
	Table          string
	DroppedColumns []string
}

func (err *RetryExhaustedError) Error() string {
	return fmt.Sprintf(
		"upsert into %q still failing after dropping columns [%s]",
		err.Table, strings.Join(err.DroppedColumns, ", "))
}
