package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"dbchunk/internal/dump"
	"dbchunk/internal/pgcatalog"
	"dbchunk/internal/ui"
)

var dumpTables []string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump one or more tables into chunked, resumable files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}

		ctx := cmd.Context()
		dsn := conn.DSN(database)

		tables, err := selectTables(ctx, dsn, dumpTables)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			log.Warn("no tables to dump")
			return nil
		}

		pg, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", database, err)
		}
		defer pg.Close(ctx)

		pipeline := dump.New(pg, dsn, settings, ui.NewSink(cmd.OutOrStdout()), intFlag)

		for _, t := range tables {
			if intFlag.Observed() {
				log.Warn("interrupt requested, stopping before " + t.Name)
				break
			}
			op := log.StartOperation("dump:" + t.Name)
			result, err := pipeline.Dump(ctx, conn.Name, database, t)
			if err != nil {
				op.Fail("extraction error", "error", err)
				return err
			}
			switch {
			case result.Skipped:
				op.Complete("already completed, skipped")
			case result.Paused:
				op.Update(fmt.Sprintf("paused at chunk %d/%d — resumable", result.ChunksDone, result.ChunksTotal))
			default:
				op.Complete(fmt.Sprintf("%d rows, %d chunks", result.RowsDumped, result.ChunksDone))
			}
		}

		return nil
	},
}

func init() {
	dumpCmd.Flags().StringArrayVar(&dumpTables, "table", nil, "table to dump (repeatable; default: every table)")
}

// selectTables resolves the catalog-probed table list down to names, or
// every table when names is empty.
func selectTables(ctx context.Context, dsn string, names []string) ([]pgcatalog.Table, error) {
	all, err := pgcatalog.ListTables(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []pgcatalog.Table
	for _, t := range all {
		if wanted[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}
