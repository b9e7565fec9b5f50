package chunkcodec

import (
	"strings"
	"testing"
)

func TestEncode_CopyModeIsPassthrough(t *testing.T) {
	raw := []byte("1\tfoo\n2\tbar\n")
	got, err := Encode(ModeCopy, raw, TableInfo{Name: "t", Columns: []string{"id", "s"}}, ChunkParams{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("copy mode mutated bytes: got %q, want %q", got, raw)
	}
}

func TestEncode_UnknownMode(t *testing.T) {
	if _, err := Encode(Mode("bogus"), nil, TableInfo{}, ChunkParams{}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestCountRows(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int
	}{
		{"empty", nil, 0},
		{"trailing newline", []byte("a\tb\nc\td\n"), 2},
		{"no trailing newline", []byte("a\tb\nc\td"), 2},
		{"single row no newline", []byte("a\tb"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountRows(tt.raw); got != tt.want {
				t.Errorf("CountRows(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeCopyField_EscapingLaw(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"null marker", `\N`, "NULL"},
		{"plain text", "hello", "'hello'"},
		{"embedded newline", `line1\nline2`, "'line1\nline2'"},
		{"embedded tab", `a\tb`, "'a\tb'"},
		{"embedded carriage return", `a\rb`, "'a\rb'"},
		{"literal backslash", `a\\b`, `'a\b'`},
		{"single quote doubled", "it's", "'it''s'"},
		{"backslash then escape sequence stays literal", `a\\nb`, `'a\nb'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeCopyField([]byte(tt.field)); got != tt.want {
				t.Errorf("decodeCopyField(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestCopyToInserts_Batching(t *testing.T) {
	raw := []byte("1\ta\n2\tb\n3\tc\n")
	got := copyToInserts(raw, "t", []string{"id", "s"}, 2)

	statements := strings.Split(got, "\n\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 batched statements, got %d: %q", len(statements), got)
	}
	if !strings.Contains(statements[0], "('1', 'a')") || !strings.Contains(statements[0], "('2', 'b')") {
		t.Errorf("first batch missing expected rows: %q", statements[0])
	}
	if !strings.Contains(statements[1], "('3', 'c')") {
		t.Errorf("second batch missing expected row: %q", statements[1])
	}
}

func TestCopyToInserts_Empty(t *testing.T) {
	if got := copyToInserts(nil, "t", []string{"id"}, 10); got != "" {
		t.Errorf("expected empty output for empty input, got %q", got)
	}
}

func TestEncode_InsertMode_FirstChunkPreambleAndTransaction(t *testing.T) {
	raw := []byte("1\tfoo\n")
	params := ChunkParams{
		IsFirst:               true,
		IsLast:                false,
		UseTransactions:       true,
		DropOnRestore:         false,
		TruncateBeforeRestore: true,
		BatchSize:             100,
	}
	got, err := Encode(ModeInsert, raw, TableInfo{Name: "orders", Columns: []string{"id", "s"}}, params)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sql := string(got)

	if !strings.Contains(sql, `TRUNCATE TABLE "orders" CASCADE;`) {
		t.Error("expected TRUNCATE preamble on first chunk")
	}
	if !strings.Contains(sql, "BEGIN;") || !strings.Contains(sql, "COMMIT;") {
		t.Error("expected transaction wrapping when UseTransactions is set")
	}
	if !strings.Contains(sql, `INSERT INTO "orders" ("id", "s") VALUES`) {
		t.Error("expected INSERT header with quoted columns")
	}
	if strings.Contains(sql, "DROP TABLE") {
		t.Error("should not DROP when DropOnRestore is false")
	}
}

func TestEncode_InsertMode_LastChunkRebuildsIndexes(t *testing.T) {
	raw := []byte("1\tfoo\n")
	params := ChunkParams{
		IsLast:                  true,
		DisableIndexesOnRestore: true,
		Indexes: []IndexDef{
			{Name: "orders_s_idx", Defn: `CREATE INDEX orders_s_idx ON "orders" ("s")`},
		},
		BatchSize: 100,
	}
	got, err := Encode(ModeInsert, raw, TableInfo{Name: "orders", Columns: []string{"id", "s"}}, params)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sql := string(got)
	if !strings.Contains(sql, `CREATE INDEX orders_s_idx ON "orders" ("s");`) {
		t.Errorf("expected index rebuild in epilogue, got: %q", sql)
	}
}

func TestEncode_InsertMode_MiddleChunkHasNoPreambleOrEpilogue(t *testing.T) {
	raw := []byte("1\tfoo\n")
	params := ChunkParams{
		IsFirst:                 false,
		IsLast:                  false,
		DropOnRestore:           true,
		DisableIndexesOnRestore: true,
		Indexes:                 []IndexDef{{Name: "i", Defn: "CREATE INDEX i ON t (c)"}},
		BatchSize:               100,
	}
	got, err := Encode(ModeInsert, raw, TableInfo{Name: "t", Columns: []string{"c"}}, params)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sql := string(got)
	if strings.Contains(sql, "DROP TABLE") || strings.Contains(sql, "DROP INDEX") || strings.Contains(sql, "CREATE INDEX") {
		t.Errorf("middle chunk should carry no preamble/epilogue DDL, got: %q", sql)
	}
}
