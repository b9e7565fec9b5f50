// Package dumperr defines the error taxonomy shared by the catalog, dump,
// and restore packages. The kinds mirror the failure classes a caller needs
// to tell apart to decide whether to retry, abort a batch, or report a
// paused-but-resumable run, not the sentinel strings a single package
// happens to return.
package dumperr

import "fmt"

// Kind classifies an error for the caller's recovery decision.
type Kind string

const (
	KindConfig     Kind = "config"     // invalid settings or missing files — fatal at startup
	KindCatalog    Kind = "catalog"    // table not found, permission denied, unreachable server
	KindExtraction Kind = "extraction" // failure during COPY ... TO STDOUT
	KindApply      Kind = "apply"      // failure while loading a restore chunk
	KindStorage    Kind = "storage"    // file write/read failure
	KindLogic      Kind = "logic"      // missing chunk file, manifest inconsistency — never retried
)

// Error wraps an underlying cause with a Kind and enough context (table,
// chunk index when relevant) for a human-facing message.
type Error struct {
	Kind  Kind
	Table string
	Chunk int // -1 when not chunk-scoped
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Table != "" {
		prefix += " " + e.Table
	}
	if e.Chunk >= 0 {
		prefix += fmt.Sprintf(" chunk %d", e.Chunk)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a table-scoped, non-chunk-scoped error.
func New(kind Kind, table, msg string, err error) *Error {
	return &Error{Kind: kind, Table: table, Chunk: -1, Msg: msg, Err: err}
}

// NewChunk builds a chunk-scoped error.
func NewChunk(kind Kind, table string, chunk int, msg string, err error) *Error {
	return &Error{Kind: kind, Table: table, Chunk: chunk, Msg: msg, Err: err}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var de *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			de = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return de != nil && de.Kind == kind
}
