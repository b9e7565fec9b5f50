package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"dbchunk/internal/restore"
	"dbchunk/internal/ui"
)

var restoreTables []string

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore one or more table directories from chunked dump files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}

		ctx := cmd.Context()
		dbDir := filepath.Join(settings.DumpDir, database)
		tableDirs, err := resolveTableDirs(dbDir, restoreTables)
		if err != nil {
			return err
		}
		if len(tableDirs) == 0 {
			log.Warn("no table directories to restore")
			return nil
		}

		connector := func(ctx context.Context) (*pgx.Conn, error) {
			return pgx.Connect(ctx, conn.DSN(database))
		}
		pipeline := restore.New(connector, settings, ui.NewSink(cmd.OutOrStdout()), intFlag)

		for _, dir := range tableDirs {
			if intFlag.Observed() {
				log.Warn("interrupt requested, stopping before " + filepath.Base(dir))
				break
			}
			name := filepath.Base(dir)
			op := log.StartOperation("restore:" + name)
			result, err := pipeline.Restore(ctx, dir)
			if err != nil {
				op.Fail("apply error", "error", err)
				return err
			}
			switch {
			case result.Skipped:
				op.Complete("already restored or empty dump, skipped")
			case result.Paused:
				op.Update(fmt.Sprintf("paused at chunk %d/%d — resumable", result.ChunksDone, result.ChunksTotal))
			default:
				op.Complete(fmt.Sprintf("%d rows across %d chunks", result.RowsRestored, result.ChunksDone))
			}
		}

		return nil
	},
}

func init() {
	restoreCmd.Flags().StringArrayVar(&restoreTables, "table", nil, "table directory to restore (repeatable; default: every directory under dump-dir/database)")
}

// resolveTableDirs lists every subdirectory of dbDir, filtered to names when
// given. It does not check that a directory holds a manifest.json.
func resolveTableDirs(dbDir string, names []string) ([]string, error) {
	entries, err := os.ReadDir(dbDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dump directory %s: %w", dbDir, err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(names) > 0 && !wanted[e.Name()] {
			continue
		}
		dirs = append(dirs, filepath.Join(dbDir, e.Name()))
	}
	return dirs, nil
}
