// Package interrupt exposes the process-wide cancellation flag shared by the
// dump and restore pipelines. It replaces the per-call context.CancelFunc
// wiring the CLI layer uses for everything else: a pipeline only needs to
// know "has someone asked me to stop" at its loop boundaries, and it needs
// that answer to survive across the manifest-driven resume points that
// context cancellation doesn't model.
package interrupt

import "sync/atomic"

// Flag is a two-stage interrupt signal: the first Request marks a clean-stop
// request, observable via Observed; a second Request (before Reset) means
// the caller asked twice and callers MAY treat that as a demand for an
// immediate abort instead of finishing the current unit of work.
type Flag struct {
	requested atomic.Bool
	count     atomic.Int32
}

// New returns a ready-to-use Flag.
func New() *Flag {
	return &Flag{}
}

// Request marks an interrupt. Idempotent with respect to Observed, but each
// call increments the internal counter so Escalated can distinguish the
// first request from a second one.
func (f *Flag) Request() {
	f.requested.Store(true)
	f.count.Add(1)
}

// Observed reports whether an interrupt has been requested since the last
// Reset.
func (f *Flag) Observed() bool {
	return f.requested.Load()
}

// Escalated reports whether Request has been called more than once since
// the last Reset — the signal a second Ctrl-C sends.
func (f *Flag) Escalated() bool {
	return f.count.Load() > 1
}

// Reset clears the interrupt state at the start of a new dump/restore run.
func (f *Flag) Reset() {
	f.requested.Store(false)
	f.count.Store(0)
}
