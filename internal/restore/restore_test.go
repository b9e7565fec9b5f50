package restore

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"dbchunk/internal/config"
)

func TestQuoteColumns(t *testing.T) {
	got := quoteColumns([]string{"id", "name"})
	want := `"id", "name"`
	if got != want {
		t.Errorf("quoteColumns() = %q, want %q", got, want)
	}
}

func TestNew_DefaultsNilSinkAndFlag(t *testing.T) {
	connector := func(ctx context.Context) (*pgx.Conn, error) { return nil, nil }
	p := New(connector, config.Settings{}, nil, nil)
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

func TestRestore_NoManifestIsLogicError(t *testing.T) {
	connector := func(ctx context.Context) (*pgx.Conn, error) { return nil, nil }
	p := New(connector, config.Settings{}, nil, nil)

	dir := t.TempDir()
	_, err := p.Restore(context.Background(), dir)
	if err == nil {
		t.Fatal("expected an error when no manifest.json is present")
	}
}
