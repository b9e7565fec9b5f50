// Package chunkio resolves chunk filenames and frames chunk bodies with
// optional gzip compression — the thin I/O layer sitting between
// internal/chunkcodec's pure byte transforms and the filesystem. Grounded on
// original_source/dbtool/dump.py's gzip.open(...) / open(...) branch and the
// teacher's own use of stdlib compress/gzip for archive compression.
package chunkio

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteChunk writes data to tableDir/filename, gzip-compressing at level
// when compressed is true.
func WriteChunk(tableDir, filename string, data []byte, compressed bool, level int) error {
	path := filepath.Join(tableDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chunkio: create %s: %w", path, err)
	}
	defer f.Close()

	if !compressed {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("chunkio: write %s: %w", path, err)
		}
		return nil
	}

	gw, err := gzip.NewWriterLevel(f, level)
	if err != nil {
		return fmt.Errorf("chunkio: gzip writer for %s: %w", path, err)
	}
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return fmt.Errorf("chunkio: gzip write %s: %w", path, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("chunkio: gzip close %s: %w", path, err)
	}
	return nil
}

// ReadChunk reads and, if compressed, decompresses the chunk at
// tableDir/filename.
func ReadChunk(tableDir, filename string, compressed bool) ([]byte, error) {
	path := filepath.Join(tableDir, filename)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunkio: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("chunkio: gzip reader for %s: %w", path, err)
		}
		defer gr.Close()
		r = gr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("chunkio: read %s: %w", path, err)
	}
	return data, nil
}

// WriteChecksum writes a "<sha256>  <filename>\n" sidecar next to filename,
// in the same format `sha256sum` itself emits, so the on-disk artifacts stay
// inspectable without this tool. Grounded on the optional checksum addition
// in SPEC_FULL.md §5/§12 (internal/metadata.CalculateSHA256 in the teacher).
func WriteChecksum(tableDir, filename string, data []byte) error {
	sum := sha256.Sum256(data)
	line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), filename)
	return os.WriteFile(filepath.Join(tableDir, filename+".sha256"), []byte(line), 0o644)
}

// VerifyChecksum reports whether data matches the .sha256 sidecar recorded
// for filename. A missing sidecar is not an error — checksums are opt-in,
// so older dumps written before VerifyChecksums was enabled have none.
func VerifyChecksum(tableDir, filename string, data []byte) (bool, error) {
	sidecar := filepath.Join(tableDir, filename+".sha256")
	raw, err := os.ReadFile(sidecar)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("chunkio: read checksum for %s: %w", filename, err)
	}

	want, _, _ := strings.Cut(strings.TrimSpace(string(raw)), " ")
	got := sha256.Sum256(data)
	return want == hex.EncodeToString(got[:]), nil
}

// Extension returns the chunk file extension for a (dumpMode, compressed)
// pair, matching manifest.Manifest.ChunkExt's rules.
func Extension(dumpMode string, compressed bool) string {
	switch {
	case dumpMode == "insert" && compressed:
		return "sql.gz"
	case dumpMode == "insert":
		return "sql"
	case compressed:
		return "csv.gz"
	default:
		return "csv"
	}
}

// Filename formats the zero-padded chunk filename for table at idx.
func Filename(table, dumpMode string, compressed bool, idx int) string {
	return fmt.Sprintf("%s_chunk_%06d.%s", table, idx, Extension(dumpMode, compressed))
}

// ListExistingChunks returns, for housekeeping/size-reporting (status
// command), every file in tableDir that looks like a chunk or sidecar
// artifact produced by a dump (chunk data, schema.sql, checksums).
func ListExistingChunks(tableDir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(tableDir)
	if err != nil {
		return nil, fmt.Errorf("chunkio: list %s: %w", tableDir, err)
	}
	var out []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		switch ext {
		case ".gz", ".csv", ".sql", ".sha256":
			out = append(out, e)
		}
	}
	return out, nil
}

// TotalSize sums the on-disk byte size of entries.
func TotalSize(entries []os.DirEntry) (int64, error) {
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return 0, fmt.Errorf("chunkio: stat %s: %w", e.Name(), err)
		}
		total += info.Size()
	}
	return total, nil
}
