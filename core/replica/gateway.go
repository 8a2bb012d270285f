package replica

import (
	"context"

	"github.com/pkg/errors"
)

const (
	// resyncBatchSize is the number of rows upserted per batch during a
	// full-table resync.
	resyncBatchSize = 100

	// maxDropAttempts bounds the auto-drop retry policy per upsert call.
	maxDropAttempts = 10
)

// RowStore is the generic relational-data client the gateway speaks to.
// Both the primary and the mirror database are accessed through it.
type RowStore interface {
	// SelectRows reads all rows of table, projected to columns.
	// A nil/empty columns slice selects every column.
	SelectRows(ctx context.Context, table string, columns []string) ([]Row, error)
	// UpsertRows inserts rows keyed on "id", updating on conflict.
	UpsertRows(ctx context.Context, table string, rows []Row) error
	// DeleteRow deletes the row with the given id. Absent ids are no-ops.
	DeleteRow(ctx context.Context, table, id string) error
}

// Gateway replicates committed changes to the mirror database.
//
// A Gateway holds no mutable state across calls; concurrent Apply calls
// share nothing but the read-only column allow-list. It never writes to the
// primary store.
type Gateway struct {
	primary   RowStore
	secondary RowStore

	// tableColumns limits what a resync fetches from the primary, per table.
	// Tables without an entry are fetched with all columns. It does not
	// constrain single-row replication.
	tableColumns map[string][]string
}

// NewGateway wires a gateway between the primary store and the mirror.
// tableColumns may be nil.
func NewGateway(primary, secondary RowStore, tableColumns map[string][]string) *Gateway {
	return &Gateway{
		primary:      primary,
		secondary:    secondary,
		tableColumns: tableColumns,
	}
}

// Apply replicates one change request to the mirror.
//
// Create/Update upsert the row keyed on "id"; Delete removes the row;
// ResyncAll replays the whole table from the primary in sequential batches.
// All upserts run under the auto-drop retry policy: a structured
// missing-column error sheds that column from the payload and retries, up to
// maxDropAttempts; any other error propagates immediately. Re-applying the
// same request is idempotent.
func (g *Gateway) Apply(ctx context.Context, req ChangeRequest) (Result, error) {
	if req.Table == "" {
		return Result{}, errMissingTable
	}

	switch req.Operation {
	case OpCreate, OpUpdate:
		if req.Row == nil {
			return Result{}, errMissingRow
		}
		dropped := newColSet()
		if err := g.upsert(ctx, req.Table, []Row{req.Row}, dropped); err != nil {
			return Result{DroppedColumns: dropped.list()}, errors.Wrapf(err, "replicating %s on %q", req.Operation, req.Table)
		}
		return Result{Applied: 1, DroppedColumns: dropped.list()}, nil

	case OpDelete:
		if req.RowID == "" {
			return Result{}, errMissingRowID
		}
		if err := g.secondary.DeleteRow(ctx, req.Table, req.RowID); err != nil {
			return Result{}, errors.Wrapf(err, "replicating %s on %q", req.Operation, req.Table)
		}
		return Result{DroppedColumns: []string{}, DeletedID: req.RowID}, nil

	case OpResyncAll:
		return g.resyncAll(ctx, req.Table)
	}
	return Result{}, errors.Errorf("unknown operation %q", req.Operation)
}

// upsert applies the batch to the mirror under the auto-drop retry policy.
// Columns shed so far are accumulated in dropped and not re-attempted.
func (g *Gateway) upsert(ctx context.Context, table string, rows []Row, dropped *colSet) error {
	for attempt := 0; attempt < maxDropAttempts; attempt++ {
		err := g.secondary.UpsertRows(ctx, table, stripColumns(rows, dropped))
		if err == nil {
			return nil
		}
		if mcErr, ok := errors.Cause(err).(*MissingColumnError); ok {
			dropped.add(mcErr.Column)
			continue
		}
		return err
	}
	return &RetryExhaustedError{Table: table, DroppedColumns: dropped.list()}
}

// resyncAll reads the whole table from the primary (projected to the
// allow-list when one exists) and upserts it into the mirror in sequential
// batches. Columns dropped by an earlier batch stay dropped for the rest of
// the call, so later batches do not rediscover them.
func (g *Gateway) resyncAll(ctx context.Context, table string) (Result, error) {
	rows, err := g.primary.SelectRows(ctx, table, g.tableColumns[table])
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading %q from primary", table)
	}

	dropped := newColSet()
	var applied int
	for start := 0; start < len(rows); start += resyncBatchSize {
		end := start + resyncBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := g.upsert(ctx, table, rows[start:end], dropped); err != nil {
			// a deterministic prefix of the table has been replicated
			return Result{Applied: applied, DroppedColumns: dropped.list()},
				errors.Wrapf(err, "replicating %s on %q", OpResyncAll, table)
		}
		applied += end - start
	}
	return Result{Applied: applied, DroppedColumns: dropped.list()}, nil
}
