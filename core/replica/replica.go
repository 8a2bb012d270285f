// Package replica applies committed changes from the primary database to an
// independently-provisioned mirror, tolerating schema drift between the two:
// columns the mirror does not know yet are shed from the payload instead of
// failing the whole sync.
package replica

import (
	"fmt"

	"github.com/pkg/errors"
)

// Operation identifies what happened to a row on the primary database.
type Operation int

const (
	OpCreate Operation = iota
	OpUpdate
	OpDelete
	// OpResyncAll replays a full table from the primary to the mirror.
	OpResyncAll
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpResyncAll:
		return "resync-all"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// Row is a single table row keyed by column name.
type Row map[string]interface{}

// ChangeRequest describes one committed change to replicate.
// Row is set iff Operation is OpCreate or OpUpdate;
// RowID is set iff Operation is OpDelete.
type ChangeRequest struct {
	Operation Operation
	Table     string
	Row       Row
	RowID     string
}

// Result reports what a replication call did.
type Result struct {
	Applied        int      `json:"applied"`
	DroppedColumns []string `json:"dropped_columns"`
	DeletedID      string   `json:"deleted_id,omitempty"`
}

// colSet is an insertion-ordered set of column names.
type colSet struct {
	names []string
	seen  map[string]bool
}

func newColSet() *colSet {
	return &colSet{seen: make(map[string]bool)}
}

func (s *colSet) add(name string) {
	if !s.seen[name] {
		s.seen[name] = true
		s.names = append(s.names, name)
	}
}

func (s *colSet) empty() bool { return len(s.names) == 0 }

func (s *colSet) list() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// stripColumns returns rows with the dropped columns removed.
// rows are copied; the caller's payload is never mutated.
func stripColumns(rows []Row, dropped *colSet) []Row {
	if dropped.empty() {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		stripped := make(Row, len(row))
		for col, val := range row {
			if !dropped.seen[col] {
				stripped[col] = val
			}
		}
		out = append(out, stripped)
	}
	return out
}

var (
	errMissingTable = errors.New("change request has no table name")
	errMissingRow   = errors.New("change request has no row payload")
	errMissingRowID = errors.New("change request has no row id")
)
