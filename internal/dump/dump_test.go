package dump

import (
	"testing"
	"time"

	"dbchunk/internal/config"
	"dbchunk/internal/pgcatalog"
)

func TestQuoteColumns(t *testing.T) {
	got := quoteColumns([]string{"id", "created_at"})
	want := `"id", "created_at"`
	if got != want {
		t.Errorf("quoteColumns() = %q, want %q", got, want)
	}
}

func TestNewManifest(t *testing.T) {
	table := pgcatalog.Table{
		Schema:    "public",
		Name:      "orders",
		Columns:   []string{"id", "total"},
		PKColumns: []string{"id"},
	}
	s := config.Settings{ChunkRows: 1000, Compress: true, DumpMode: config.ModeInsert}

	m := newManifest("primary", "appdb", table, s, 5000, 2, 5, true)

	if m.Table != "orders" || m.Database != "appdb" || m.ConnectionName != "primary" {
		t.Errorf("identity fields wrong: %+v", m)
	}
	if m.ChunkRows != 1000 || m.TotalRows != 5000 || m.ChunksCompleted != 2 || m.ChunksTotal != 5 {
		t.Errorf("progress fields wrong: %+v", m)
	}
	if m.DumpMode != "insert" || !m.Compressed || !m.HasSchema {
		t.Errorf("format fields wrong: %+v", m)
	}
	if m.StartedAt.After(time.Now()) {
		t.Error("StartedAt should not be in the future")
	}
	if len(m.PKColumns) != 1 || m.PKColumns[0] != "id" {
		t.Errorf("pk columns not carried through: %v", m.PKColumns)
	}
}

func TestNew_DefaultsNilSinkAndFlag(t *testing.T) {
	p := New(nil, "", config.Settings{}, nil, nil)
	if p.Sink == nil {
		t.Error("expected a non-nil default sink")
	}
	if p.Interrupt == nil {
		t.Error("expected a non-nil default interrupt flag")
	}
	if p.Interrupt.Observed() {
		t.Error("fresh interrupt flag should not be observed")
	}
}
