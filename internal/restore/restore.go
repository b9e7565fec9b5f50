// Package restore implements the load half of the chunked dump/restore
// engine: manifest-driven, resumable chunk application with per-attempt
// reconnection and exponential backoff. Grounded on
// original_source/dbtool/restore.py's restore_table, translated from
// psycopg2's connect-per-attempt pattern into pgx/v5, with the Python
// original's plain retry loop replaced by internal/retry's Do.
package restore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"dbchunk/internal/chunkcodec"
	"dbchunk/internal/chunkio"
	"dbchunk/internal/config"
	"dbchunk/internal/dumperr"
	"dbchunk/internal/interrupt"
	"dbchunk/internal/manifest"
	"dbchunk/internal/progress"
	"dbchunk/internal/retry"
)

// Connector opens a fresh connection to the target database. The restore
// pipeline calls it once per schema operation and once per chunk apply
// attempt, mirroring the original's connect()/close() around every cursor
// use rather than holding one connection for the whole table.
type Connector func(ctx context.Context) (*pgx.Conn, error)

// Pipeline restores one table directory at a time.
type Pipeline struct {
	Connector Connector
	Settings  config.Settings
	Sink      progress.Sink
	Interrupt *interrupt.Flag
}

// New builds a restore Pipeline. sink and flag may be nil, same defaulting
// rule as dump.New.
func New(connector Connector, settings config.Settings, sink progress.Sink, flag *interrupt.Flag) *Pipeline {
	if sink == nil {
		sink = progress.NullSink{}
	}
	if flag == nil {
		flag = interrupt.New()
	}
	return &Pipeline{Connector: connector, Settings: settings, Sink: sink, Interrupt: flag}
}

// Result reports what Restore actually did, for the CLI summary line.
type Result struct {
	Skipped      bool
	Paused       bool
	RowsRestored int64
	ChunksDone   int
	ChunksTotal  int
}

// Restore applies every chunk under tableDir in order, resuming from any
// existing restore_state.json.
func (p *Pipeline) Restore(ctx context.Context, tableDir string) (Result, error) {
	if !manifest.Exists(tableDir) {
		return Result{}, dumperr.New(dumperr.KindLogic, tableDir, "no manifest.json found", nil)
	}
	m, err := manifest.Load(tableDir)
	if err != nil {
		return Result{}, dumperr.New(dumperr.KindLogic, tableDir, "load manifest", err)
	}

	if m.TotalRows == 0 {
		return Result{Skipped: true}, nil
	}

	state, err := manifest.LoadState(tableDir)
	if err != nil {
		return Result{}, dumperr.New(dumperr.KindLogic, m.Table, "load restore state", err)
	}
	startChunk := state.ChunksRestored
	if startChunk >= m.ChunksTotal {
		return Result{Skipped: true}, nil
	}

	if startChunk == 0 {
		if err := p.preRestore(ctx, tableDir, m); err != nil {
			return Result{}, err
		}
	}

	var droppedIndexes []string
	if p.Settings.DisableIndexesOnRestore && startChunk == 0 {
		droppedIndexes, err = p.dropNonPKIndexes(ctx, m.Table, m.Schema)
		if err != nil {
			return Result{}, err
		}
	}

	colList := quoteColumns(m.Columns)
	rowsRestored := int64(startChunk) * int64(m.ChunkRows)
	tStart := time.Now()

	p.Sink.Begin(m.Table, m.TotalRows, startChunk, m.ChunksTotal, m.ChunkRows)

	policy := retry.Policy{MaxRetries: p.Settings.MaxRetries, BaseDelay: p.Settings.RetryBackoff}
	chunkIdx := startChunk
	paused := false

	for ; chunkIdx < m.ChunksTotal; chunkIdx++ {
		if p.Interrupt.Observed() {
			paused = true
			break
		}

		filename := chunkio.Filename(m.Table, m.DumpMode, m.Compressed, chunkIdx)
		if _, err := os.Stat(filepath.Join(tableDir, filename)); err != nil {
			return Result{}, dumperr.NewChunk(dumperr.KindLogic, m.Table, chunkIdx, "missing chunk file "+filename, err)
		}

		raw, err := chunkio.ReadChunk(tableDir, filename, m.Compressed)
		if err != nil {
			return Result{}, dumperr.NewChunk(dumperr.KindStorage, m.Table, chunkIdx, "read chunk", err)
		}

		if p.Settings.VerifyChecksums {
			ok, err := chunkio.VerifyChecksum(tableDir, filename, raw)
			if err != nil {
				return Result{}, dumperr.NewChunk(dumperr.KindStorage, m.Table, chunkIdx, "verify checksum", err)
			}
			if !ok {
				return Result{}, dumperr.NewChunk(dumperr.KindLogic, m.Table, chunkIdx, "checksum mismatch for "+filename, nil)
			}
		}

		chunkRowCount := chunkcodec.CountRowsForMode(raw, m.DumpMode)

		applyErr := retry.Do(ctx, policy, func(attempt int) error {
			return p.applyChunk(ctx, m.Table, colList, m.DumpMode, raw)
		})
		if applyErr != nil {
			if ctx.Err() != nil || p.Interrupt.Observed() {
				_ = manifest.SaveState(tableDir, &manifest.State{ChunksRestored: chunkIdx})
				paused = true
				break
			}
			_ = manifest.SaveState(tableDir, &manifest.State{ChunksRestored: chunkIdx})
			return Result{}, dumperr.NewChunk(dumperr.KindApply, m.Table, chunkIdx, "apply chunk", applyErr)
		}

		rowsRestored += int64(chunkRowCount)
		if err := manifest.SaveState(tableDir, &manifest.State{ChunksRestored: chunkIdx + 1}); err != nil {
			return Result{}, dumperr.NewChunk(dumperr.KindStorage, m.Table, chunkIdx, "write restore state", err)
		}

		elapsed := time.Since(tStart).Seconds()
		speed := ""
		if elapsed > 0 {
			speed = fmt.Sprintf("%d rows/s", int64(float64(rowsRestored)/elapsed))
		}
		p.Sink.Update(rowsRestored, chunkIdx+1, speed)
	}

	if paused {
		p.Sink.End()
		return Result{Paused: true, RowsRestored: rowsRestored, ChunksDone: chunkIdx, ChunksTotal: m.ChunksTotal}, nil
	}

	if len(droppedIndexes) > 0 {
		if err := p.rebuildIndexes(ctx, droppedIndexes); err != nil {
			return Result{}, err
		}
	}
	p.Sink.End()

	return Result{RowsRestored: rowsRestored, ChunksDone: chunkIdx, ChunksTotal: m.ChunksTotal}, nil
}

// preRestore performs the drop/recreate/truncate dance before any chunk is
// applied, all on one connection so DDL and the following commit are
// visible to the chunk-apply connections that follow.
func (p *Pipeline) preRestore(ctx context.Context, tableDir string, m *manifest.Manifest) error {
	conn, err := p.Connector(ctx)
	if err != nil {
		return dumperr.New(dumperr.KindCatalog, m.Table, "connect for pre-restore", err)
	}
	defer conn.Close(ctx)

	if p.Settings.DropOnRestore {
		if _, err := conn.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE`, m.Table)); err != nil {
			return dumperr.New(dumperr.KindApply, m.Table, "drop table before restore", err)
		}
	}

	if p.Settings.RecreateSchema && m.HasSchema {
		ddl, err := os.ReadFile(filepath.Join(tableDir, "schema.sql"))
		if err == nil {
			if _, err := conn.PgConn().Exec(ctx, string(ddl)).ReadAll(); err != nil {
				return dumperr.New(dumperr.KindApply, m.Table, "recreate schema", err)
			}
		}
	}

	if p.Settings.TruncateBeforeRestore && !p.Settings.DropOnRestore {
		// Tolerated: the table may not exist yet on a from-scratch restore.
		_, _ = conn.Exec(ctx, fmt.Sprintf(`TRUNCATE TABLE "%s" CASCADE`, m.Table))
	}

	return nil
}

// dropNonPKIndexes drops every index on table except those backing its
// primary key, returning their CREATE INDEX statements so the caller can
// rebuild them once every chunk has loaded.
func (p *Pipeline) dropNonPKIndexes(ctx context.Context, table, schema string) ([]string, error) {
	conn, err := p.Connector(ctx)
	if err != nil {
		return nil, dumperr.New(dumperr.KindCatalog, table, "connect to drop indexes", err)
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		  AND indexname NOT IN (
		      SELECT conname FROM pg_constraint
		      WHERE conrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		        AND contype = 'p'
		  )
	`, schema, table)
	if err != nil {
		return nil, dumperr.New(dumperr.KindCatalog, table, "list non-pk indexes", err)
	}

	type pair struct{ name, defn string }
	var pairs []pair
	for rows.Next() {
		var pr pair
		if err := rows.Scan(&pr.name, &pr.defn); err != nil {
			rows.Close()
			return nil, dumperr.New(dumperr.KindCatalog, table, "scan index row", err)
		}
		pairs = append(pairs, pr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dumperr.New(dumperr.KindCatalog, table, "iterate index rows", err)
	}

	var defs []string
	for _, pr := range pairs {
		if _, err := conn.Exec(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS "%s"."%s"`, schema, pr.name)); err != nil {
			return nil, dumperr.New(dumperr.KindApply, table, "drop index "+pr.name, err)
		}
		defs = append(defs, pr.defn)
	}
	return defs, nil
}

// rebuildIndexes recreates every index definition previously dropped by
// dropNonPKIndexes.
func (p *Pipeline) rebuildIndexes(ctx context.Context, definitions []string) error {
	conn, err := p.Connector(ctx)
	if err != nil {
		return dumperr.New(dumperr.KindCatalog, "", "connect to rebuild indexes", err)
	}
	defer conn.Close(ctx)

	for _, defn := range definitions {
		if _, err := conn.Exec(ctx, defn); err != nil {
			return dumperr.New(dumperr.KindApply, "", "rebuild index", err)
		}
	}
	return nil
}

// applyChunk loads one chunk's bytes into table on a freshly opened
// connection — copy mode streams raw through COPY FROM STDIN, insert mode
// runs the self-contained SQL script (which may itself contain
// BEGIN/COMMIT) as one simple-protocol batch.
func (p *Pipeline) applyChunk(ctx context.Context, table, colList, dumpMode string, raw []byte) error {
	conn, err := p.Connector(ctx)
	if err != nil {
		return fmt.Errorf("connect to apply chunk: %w", err)
	}
	defer conn.Close(ctx)

	if dumpMode == "insert" {
		if _, err := conn.PgConn().Exec(ctx, string(raw)).ReadAll(); err != nil {
			return fmt.Errorf("execute insert chunk: %w", err)
		}
		return nil
	}

	copySQL := fmt.Sprintf(`COPY "%s" (%s) FROM STDIN`, table, colList)
	if _, err := conn.PgConn().CopyFrom(ctx, bytes.NewReader(raw), copySQL); err != nil {
		return fmt.Errorf("copy from stdin: %w", err)
	}
	return nil
}

func quoteColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ", ")
}
