// Package manifest implements the durable contract between the dump and
// restore pipelines: the per-table JSON manifest (spec.md §3) and the
// restore-state sidecar, both written atomically via a temp-file-then-rename
// so a reader never observes a half-written document.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest is the durable record of a dump's parameters and progress.
// Fields mirror spec.md §3 exactly; columns and pk_columns are captured at
// dump time and are authoritative for restore even if the live schema later
// changes.
type Manifest struct {
	ConnectionName string     `json:"connection_name"`
	Database       string     `json:"database"`
	Table          string     `json:"table"`
	Schema         string     `json:"schema"`
	Columns        []string   `json:"columns"`
	PKColumns      []string   `json:"pk_columns"`
	ChunkRows      int        `json:"chunk_rows"`
	TotalRows      int64      `json:"total_rows"`
	ChunksCompleted int       `json:"chunks_completed"`
	ChunksTotal     int       `json:"chunks_total"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Compressed     bool       `json:"compressed"`
	DumpMode       string     `json:"dump_mode"`
	HasSchema      bool       `json:"has_schema"`
}

// ChunkExt returns the file extension for this manifest's (dump_mode,
// compressed) pair, per spec.md §3's on-disk layout.
func (m *Manifest) ChunkExt() string {
	switch {
	case m.DumpMode == "insert" && m.Compressed:
		return "sql.gz"
	case m.DumpMode == "insert":
		return "sql"
	case m.Compressed:
		return "csv.gz"
	default:
		return "csv"
	}
}

// ChunkFilename formats the zero-padded chunk filename for index idx.
func (m *Manifest) ChunkFilename(idx int) string {
	return fmt.Sprintf("%s_chunk_%06d.%s", m.Table, idx, m.ChunkExt())
}

// IsFinished reports whether the dump completed.
func (m *Manifest) IsFinished() bool {
	return m.FinishedAt != nil
}

// Path returns the manifest.json path for a table directory.
func Path(tableDir string) string {
	return filepath.Join(tableDir, "manifest.json")
}

// Load reads and parses a manifest, tolerant of missing optional fields —
// the JSON decoder already leaves unset Go fields at their zero value, and
// unknown fields on the wire are silently ignored per spec.md §6.
func Load(tableDir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(tableDir))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.DumpMode == "" {
		m.DumpMode = "copy"
	}
	return &m, nil
}

// Exists reports whether a manifest is present for tableDir.
func Exists(tableDir string) bool {
	_, err := os.Stat(Path(tableDir))
	return err == nil
}

// Save serializes the whole manifest, pretty-indented, to a temp file in
// the same directory and renames it into place. Rename is atomic on the
// same filesystem, so a concurrent reader sees either the old manifest in
// full or the new one — never a partial write (spec.md §4.2).
func Save(tableDir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return atomicWrite(Path(tableDir), data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
