package core

import "strings"

// DBOrdering is a single ORDER BY term, parsed from the API's `ordering`
// query parameter.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderByClause renders an ORDER BY clause (leading space included), falling
// back to deflt when no ordering was requested.
func OrderByClause(deflt string, ordering ...DBOrdering) string {
	if len(ordering) == 0 {
		return " ORDER BY " + deflt
	}
	parts := make([]string, len(ordering))
	for i, ord := range ordering {
		parts[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
