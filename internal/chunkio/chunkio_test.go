package chunkio

import (
	"testing"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name       string
		dumpMode   string
		compressed bool
		want       string
	}{
		{"copy uncompressed", "copy", false, "csv"},
		{"copy compressed", "copy", true, "csv.gz"},
		{"insert uncompressed", "insert", false, "sql"},
		{"insert compressed", "insert", true, "sql.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extension(tt.dumpMode, tt.compressed); got != tt.want {
				t.Errorf("Extension(%q, %v) = %q, want %q", tt.dumpMode, tt.compressed, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	got := Filename("orders", "copy", true, 7)
	want := "orders_chunk_000007.csv.gz"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestWriteReadChunk_Uncompressed(t *testing.T) {
	dir := t.TempDir()
	data := []byte("1\tfoo\n2\tbar\n")

	if err := WriteChunk(dir, "t_chunk_000000.csv", data, false, 0); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	got, err := ReadChunk(dir, "t_chunk_000000.csv", false)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestWriteReadChunk_Compressed(t *testing.T) {
	dir := t.TempDir()
	data := []byte("1\tfoo\n2\tbar\n3\tbaz\n")

	if err := WriteChunk(dir, "t_chunk_000000.csv.gz", data, true, 6); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	got, err := ReadChunk(dir, "t_chunk_000000.csv.gz", true)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestListExistingChunks_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"t_chunk_000000.csv", "t_chunk_000001.csv.gz", "manifest.json", "schema.sql", "notes.txt"} {
		if err := WriteChunk(dir, name, []byte("x"), false, 0); err != nil {
			t.Fatalf("setup WriteChunk(%s): %v", name, err)
		}
	}

	entries, err := ListExistingChunks(dir)
	if err != nil {
		t.Fatalf("ListExistingChunks: %v", err)
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	if names["manifest.json"] {
		t.Error("manifest.json should not be counted as a chunk artifact")
	}
	if names["notes.txt"] {
		t.Error("notes.txt should not be counted as a chunk artifact")
	}
	if !names["t_chunk_000000.csv"] || !names["t_chunk_000001.csv.gz"] || !names["schema.sql"] {
		t.Errorf("expected chunk and schema files present, got %v", names)
	}
}

func TestWriteVerifyChecksum(t *testing.T) {
	dir := t.TempDir()
	data := []byte("1\tfoo\n2\tbar\n")

	if err := WriteChecksum(dir, "t_chunk_000000.csv", data); err != nil {
		t.Fatalf("WriteChecksum: %v", err)
	}

	ok, err := VerifyChecksum(dir, "t_chunk_000000.csv", data)
	if err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if !ok {
		t.Error("expected checksum to match original data")
	}

	ok, err = VerifyChecksum(dir, "t_chunk_000000.csv", []byte("tampered"))
	if err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if ok {
		t.Error("expected checksum mismatch for tampered data")
	}
}

func TestVerifyChecksum_MissingSidecarIsOK(t *testing.T) {
	dir := t.TempDir()
	ok, err := VerifyChecksum(dir, "no_sidecar.csv", []byte("anything"))
	if err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if !ok {
		t.Error("missing sidecar should be treated as a pass (checksums are opt-in)")
	}
}

func TestTotalSize(t *testing.T) {
	dir := t.TempDir()
	if err := WriteChunk(dir, "a.csv", []byte("12345"), false, 0); err != nil {
		t.Fatal(err)
	}
	if err := WriteChunk(dir, "b.csv", []byte("1234567890"), false, 0); err != nil {
		t.Fatal(err)
	}

	entries, err := ListExistingChunks(dir)
	if err != nil {
		t.Fatalf("ListExistingChunks: %v", err)
	}
	total, err := TotalSize(entries)
	if err != nil {
		t.Fatalf("TotalSize: %v", err)
	}
	if total != 15 {
		t.Errorf("TotalSize() = %d, want 15", total)
	}
}
