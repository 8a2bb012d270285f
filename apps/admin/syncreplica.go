package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
)

var errNoReplica = errors.New("replica database is not configured")

// syncReplica replays whole tables from the primary to the mirror.
// An empty table resyncs every replicated table.
func (cli *commandLine) syncReplica(table string) error {
	if cli.gateway == nil {
		return errNoReplica
	}

	tables := []string{table}
	if table == "" {
		tables = tables[:0]
		for tbl := range school.ReplicaColumns {
			tables = append(tables, tbl)
		}
		sort.Strings(tables)
	}

	ctx := context.Background()
	for _, tbl := range tables {
		res, err := cli.gateway.Apply(ctx, replica.ChangeRequest{Operation: replica.OpResyncAll, Table: tbl})
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rows replicated", tbl, res.Applied)
		if len(res.DroppedColumns) > 0 {
			fmt.Printf("; dropped columns: %s", strings.Join(res.DroppedColumns, ", "))
		}
		fmt.Println()
	}
	return nil
}
