package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManifest_ChunkFilename(t *testing.T) {
	tests := []struct {
		name       string
		dumpMode   string
		compressed bool
		idx        int
		want       string
	}{
		{"copy uncompressed", "copy", false, 0, "orders_chunk_000000.csv"},
		{"copy compressed", "copy", true, 1, "orders_chunk_000001.csv.gz"},
		{"insert uncompressed", "insert", false, 12, "orders_chunk_000012.sql"},
		{"insert compressed", "insert", true, 999999, "orders_chunk_999999.sql.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{Table: "orders", DumpMode: tt.dumpMode, Compressed: tt.compressed}
			if got := m.ChunkFilename(tt.idx); got != tt.want {
				t.Errorf("ChunkFilename(%d) = %q, want %q", tt.idx, got, tt.want)
			}
		})
	}
}

func TestManifest_SaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().Truncate(time.Second)
	m := &Manifest{
		ConnectionName:  "primary",
		Database:        "appdb",
		Table:           "orders",
		Schema:          "public",
		Columns:         []string{"id", "s"},
		PKColumns:       []string{"id"},
		ChunkRows:       2,
		TotalRows:       3,
		ChunksCompleted: 2,
		ChunksTotal:     2,
		StartedAt:       now,
		FinishedAt:      &now,
		Compressed:      false,
		DumpMode:        "copy",
		HasSchema:       true,
	}

	if err := Save(dir, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Table != m.Table || got.TotalRows != m.TotalRows || got.ChunksTotal != m.ChunksTotal {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, m)
	}
	if !got.IsFinished() {
		t.Error("expected round-tripped manifest to report finished")
	}
}

func TestManifest_Load_MissingOptionalFields(t *testing.T) {
	dir := t.TempDir()
	// A minimal manifest missing dump_mode and has_schema — both must take
	// their documented defaults rather than failing to parse.
	raw := `{"connection_name":"c","database":"d","table":"t","schema":"public",
		"columns":["id"],"pk_columns":["id"],"chunk_rows":500000,
		"total_rows":0,"chunks_completed":0,"chunks_total":0,
		"started_at":"2024-01-01T00:00:00Z"}`
	if err := os.WriteFile(Path(dir), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DumpMode != "copy" {
		t.Errorf("DumpMode default = %q, want copy", got.DumpMode)
	}
	if got.HasSchema {
		t.Error("HasSchema should default to false")
	}
}

func TestSave_AtomicNoPartialWrite(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Table: "t", Columns: []string{"id"}, PKColumns: []string{"id"}, DumpMode: "copy"}
	if err := Save(dir, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No stray temp files should remain after a successful save.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file after Save: %s", e.Name())
		}
	}
}

func TestState_LoadMissingIsZero(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if s.ChunksRestored != 0 {
		t.Errorf("ChunksRestored = %d, want 0", s.ChunksRestored)
	}
}

func TestState_SaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := SaveState(dir, &State{ChunksRestored: 5}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	s, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if s.ChunksRestored != 5 {
		t.Errorf("ChunksRestored = %d, want 5", s.ChunksRestored)
	}
}
