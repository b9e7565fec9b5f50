// Package chunkcodec implements the two interchangeable chunk formats
// (spec.md §4.3): copy, a passthrough of raw COPY TO STDOUT bytes, and
// insert, a standalone .sql file assembled from those same bytes plus
// preamble/epilogue DDL. Grounded on original_source/dbtool/dump.py's
// _build_sql_chunk and _copy_to_inserts.
package chunkcodec

import (
	"bytes"
	"fmt"
	"strings"
)

// Mode selects which chunk format a Codec produces.
type Mode string

const (
	ModeCopy   Mode = "copy"
	ModeInsert Mode = "insert"
)

// TableInfo carries the identifying facts a chunk body needs to quote and
// label itself; it mirrors the subset of pgcatalog.Table the codec reads.
type TableInfo struct {
	Schema  string
	Name    string
	Columns []string
}

// IndexDef is one non-primary-key index definition to drop before a bulk
// load and recreate afterward.
type IndexDef struct {
	Name string
	Defn string
}

// ChunkParams describes one chunk's position and the settings that shape
// its preamble/epilogue.
type ChunkParams struct {
	IsFirst bool
	IsLast  bool

	UseTransactions         bool
	DropOnRestore           bool
	RecreateSchema          bool
	TruncateBeforeRestore   bool
	DisableIndexesOnRestore bool

	SchemaDDL string // "" if not dumped
	Indexes   []IndexDef
	BatchSize int // INSERT VALUES rows per statement
}

// Encode transforms raw COPY TO STDOUT bytes for table into the on-disk
// chunk body for mode. copy mode is a pure passthrough; insert mode builds
// a self-contained SQL script per ChunkParams.
func Encode(mode Mode, raw []byte, table TableInfo, p ChunkParams) ([]byte, error) {
	if mode == ModeCopy {
		return raw, nil
	}
	if mode != ModeInsert {
		return nil, fmt.Errorf("chunkcodec: unknown mode %q", mode)
	}
	return buildSQLChunk(raw, table, p), nil
}

// CountRows returns the number of logical COPY rows in raw, per spec.md's
// "trailing newline optional on the final line" convention.
func CountRows(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	n := bytes.Count(raw, []byte("\n"))
	if !bytes.HasSuffix(raw, []byte("\n")) {
		n++
	}
	return n
}

// CountRowsForMode estimates the number of logical rows in a chunk body for
// progress reporting (spec.md §4.5): an exact newline count for copy-format
// bytes, or a cheap approximation for insert-format SQL — count of "("
// minus count of "INSERT", since every VALUES tuple opens one paren that
// isn't part of an INSERT keyword.
func CountRowsForMode(raw []byte, dumpMode string) int {
	if dumpMode == "insert" {
		return bytes.Count(raw, []byte("(")) - bytes.Count(raw, []byte("INSERT"))
	}
	return CountRows(raw)
}

func buildSQLChunk(raw []byte, table TableInfo, p ChunkParams) []byte {
	var parts []string

	parts = append(parts, fmt.Sprintf("-- dbchunk dump: %s", table.Name))
	if p.IsFirst {
		parts = append(parts, "-- chunk: 0 (first -- includes preamble)")
	}
	if p.IsLast {
		parts = append(parts, "-- chunk: last (includes epilogue)")
	}
	parts = append(parts, "")

	if p.IsFirst {
		if p.DropOnRestore {
			parts = append(parts, fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE;`, table.Name), "")
		}

		if p.RecreateSchema && p.SchemaDDL != "" {
			parts = append(parts, "-- schema", p.SchemaDDL, "")
		} else if p.DropOnRestore && p.SchemaDDL != "" {
			parts = append(parts, "-- schema (required after DROP)", p.SchemaDDL, "")
		}

		if p.TruncateBeforeRestore && !p.DropOnRestore {
			parts = append(parts, fmt.Sprintf(`TRUNCATE TABLE "%s" CASCADE;`, table.Name), "")
		}

		if p.DisableIndexesOnRestore && len(p.Indexes) > 0 {
			parts = append(parts, "-- drop indexes for faster bulk load")
			for _, idx := range p.Indexes {
				parts = append(parts, fmt.Sprintf(`DROP INDEX IF EXISTS "%s";`, idx.Name))
			}
			parts = append(parts, "")
		}
	}

	if p.UseTransactions {
		parts = append(parts, "BEGIN;", "")
	}

	parts = append(parts, copyToInserts(raw, table.Name, table.Columns, p.BatchSize))

	if p.UseTransactions {
		parts = append(parts, "COMMIT;", "")
	}

	if p.IsLast && p.DisableIndexesOnRestore && len(p.Indexes) > 0 {
		parts = append(parts, "-- rebuild indexes")
		for _, idx := range p.Indexes {
			parts = append(parts, idx.Defn+";")
		}
		parts = append(parts, "")
	}

	return []byte(strings.Join(parts, "\n"))
}

// copyToInserts reverses COPY's tab-delimited escaping and emits batched
// INSERT statements of at most batchSize rows each.
func copyToInserts(raw []byte, tableName string, columns []string, batchSize int) string {
	if len(raw) == 0 {
		return ""
	}
	if batchSize < 1 {
		batchSize = 1
	}

	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = `"` + c + `"`
	}
	header := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES`, tableName, strings.Join(quotedCols, ", "))

	lines := bytes.Split(raw, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	var outputParts []string
	var batch []string

	flush := func() {
		if len(batch) == 0 {
			return
		}
		outputParts = append(outputParts, header+"\n"+strings.Join(batch, ",\n")+";")
		batch = nil
	}

	for _, line := range lines {
		fields := bytes.Split(line, []byte("\t"))
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = decodeCopyField(f)
		}
		batch = append(batch, "  ("+strings.Join(values, ", ")+")")
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	return strings.Join(outputParts, "\n\n")
}

// decodeCopyField reverses COPY's backslash escaping for one field and
// returns a single-quoted SQL literal (or the bare word NULL).
func decodeCopyField(f []byte) string {
	if string(f) == `\N` {
		return "NULL"
	}

	// Swap literal "\\" out to a placeholder before unescaping \n, \r, \t
	// so a literal backslash never collides with those replacements, then
	// swap the placeholder back to a single backslash.
	const placeholder = "\x00"
	s := bytes.ReplaceAll(f, []byte(`\\`), []byte(placeholder))
	s = bytes.ReplaceAll(s, []byte(`\n`), []byte("\n"))
	s = bytes.ReplaceAll(s, []byte(`\r`), []byte("\r"))
	s = bytes.ReplaceAll(s, []byte(`\t`), []byte("\t"))
	s = bytes.ReplaceAll(s, []byte(placeholder), []byte(`\`))

	text := strings.ReplaceAll(string(s), "'", "''")
	return "'" + text + "'"
}
