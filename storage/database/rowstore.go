package database

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edlabs/academia/core/replica"
)

// rowStore gives the replication gateway schema-agnostic row access to a
// postgres database. Tables and columns are only known at runtime, so
// statements are built dynamically with quoted identifiers.
type rowStore struct {
	db *sqlx.DB
}

var _ replica.RowStore = (*rowStore)(nil) // interface compliance check

func NewRowStore(db *sqlx.DB) replica.RowStore {
	return &rowStore{db: db}
}

func (s *rowStore) SelectRows(ctx context.Context, table string, columns []string) ([]replica.Row, error) {
	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = pq.QuoteIdentifier(col)
		}
		projection = strings.Join(quoted, ", ")
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		projection, pq.QuoteIdentifier(table), pq.QuoteIdentifier("id"))

	dbRows, err := s.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, mapColumnError(table, err)
	}
	defer func() { _ = dbRows.Close() }()

	var rows []replica.Row
	for dbRows.Next() {
		row := make(replica.Row)
		if err = dbRows.MapScan(row); err != nil {
			return nil, errors.Wrapf(err, "scanning %q row", table)
		}
		rows = append(rows, normalizeRow(row))
	}
	if err = dbRows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %q rows", table)
	}
	return rows, nil
}

func (s *rowStore) UpsertRows(ctx context.Context, table string, rows []replica.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := columnUnion(rows)
	q, args := buildUpsert(table, columns, rows)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return mapColumnError(table, err)
	}
	return nil
}

func (s *rowStore) DeleteRow(ctx context.Context, table, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier("id"))

	// deleting an absent row is a no-op
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return errors.Wrapf(err, "deleting %q row", table)
	}
	return nil
}

// columnUnion collects every column appearing in rows; "id" first, the rest
// sorted, so the generated statement is deterministic.
func columnUnion(rows []replica.Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Slice(columns, func(i, j int) bool {
		if columns[i] == "id" {
			return true
		}
		if columns[j] == "id" {
			return false
		}
		return columns[i] < columns[j]
	})
	return columns
}

// buildUpsert generates a multi-row INSERT .. ON CONFLICT ("id") DO UPDATE
// statement. Rows missing a column get NULL for it.
func buildUpsert(table string, columns []string, rows []replica.Row) (string, []interface{}) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "))

	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, col := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, row[col])
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteString(")")
	}

	var updates []string
	for _, col := range columns {
		if col == "id" {
			continue
		}
		qc := pq.QuoteIdentifier(col)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", qc, qc))
	}
	if len(updates) == 0 {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", pq.QuoteIdentifier("id"))
	} else {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s",
			pq.QuoteIdentifier("id"), strings.Join(updates, ", "))
	}
	return b.String(), args
}

// normalizeRow converts driver byte slices to strings so rows survive a
// select-then-upsert round trip and marshal cleanly.
func normalizeRow(row replica.Row) replica.Row {
	for col, val := range row {
		if b, ok := val.([]byte); ok {
			row[col] = string(b)
		}
	}
	return row
}

// undefinedColumn is the postgres error code for a reference to a column
// that does not exist (SQLSTATE 42703).
const undefinedColumn = pq.ErrorCode("42703")

var columnNameRegex = regexp.MustCompile(`column "([^"]+)"`)

// mapColumnError translates a postgres undefined-column error into the
// structured error the gateway's auto-drop retry policy acts on. Anything
// else passes through untouched.
func mapColumnError(table string, err error) error {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != undefinedColumn {
		return err
	}

	column := pqErr.Column
	if column == "" {
		if m := columnNameRegex.FindStringSubmatch(pqErr.Message); m != nil {
			column = m[1]
		}
	}
	if column == "" {
		return err
	}
	return &replica.MissingColumnError{Table: table, Column: column}
}
