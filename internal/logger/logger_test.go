package logger

import "testing"

func TestNullLoggerSatisfiesInterface(t *testing.T) {
	var l Logger = NewNullLogger()

	l.Debug("debug msg")
	l.Info("info msg", "k", "v")
	l.Warn("warn msg")
	l.Error("error msg")
	l.Time("time msg")

	op := l.StartOperation("noop")
	op.Update("in progress")
	op.Complete("done")
	op.Fail("failed")
}

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	l := New("not-a-level", "text")
	if l == nil {
		t.Fatal("New returned nil logger")
	}
	// Should not panic on any call, even with an unrecognized level.
	l.Info("hello")
}

func TestStartOperationReportsElapsed(t *testing.T) {
	l := New("info", "text")
	op := l.StartOperation("dump:widgets")
	op.Update("chunk 1/3")
	op.Complete("3 chunks written")
}
