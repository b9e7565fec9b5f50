// Package config holds the connection descriptor and the flat settings bag
// the dump and restore pipelines read once at startup. Settings persistence
// (reading/writing a project-local dotfile) is treated as an external
// collaborator here, not expanded beyond a thin loader — see persist.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Connection is the immutable connection descriptor: a named set of
// credentials for one PostgreSQL server plus the databases it can target.
// It is never persisted by the core itself.
type Connection struct {
	Name      string
	Host      string
	Port      int
	User      string
	Password  string
	Databases []string
}

// DSN builds a libpq-style connection string for one target database.
func (c Connection) DSN(database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, database)
}

// Display renders a one-line summary, grounded on dbtool's DBConfig.display.
func (c Connection) Display() string {
	return fmt.Sprintf("%s -> %s@%s:%d %v", c.Name, c.User, c.Host, c.Port, c.Databases)
}

// DumpMode selects the chunk codec.
type DumpMode string

const (
	ModeCopy   DumpMode = "copy"
	ModeInsert DumpMode = "insert"
)

// Settings is the flat configuration bag from spec.md §6. It is read once
// per run; pipelines copy the fields they need rather than holding a
// pointer to a mutable shared Settings across goroutines.
type Settings struct {
	DumpDir   string
	ChunkRows int

	Compress      bool
	CompressLevel int

	DumpMode   DumpMode
	DumpSchema bool

	InsertBatchSize int
	UseTransactions bool

	TruncateBeforeRestore   bool
	DropOnRestore           bool
	RecreateSchema          bool
	DisableIndexesOnRestore bool

	MaxRetries   int
	RetryBackoff int // base seconds for exponential backoff

	// VerifyChecksums enables the optional .sha256 sidecar described in
	// SPEC_FULL.md §5. Off by default so the exact on-disk layout in
	// spec.md §3 is unaffected unless explicitly requested.
	VerifyChecksums bool
}

// Default returns the settings table defaults from spec.md §6.
func Default() Settings {
	return Settings{
		DumpDir:                 getEnvString("DUMP_DIR", defaultDumpDir()),
		ChunkRows:               getEnvInt("CHUNK_ROWS", 500_000),
		Compress:                getEnvBool("COMPRESS", true),
		CompressLevel:           getEnvInt("COMPRESS_LEVEL", 6),
		DumpMode:                DumpMode(getEnvString("DUMP_MODE", string(ModeCopy))),
		DumpSchema:              getEnvBool("DUMP_SCHEMA", true),
		InsertBatchSize:         getEnvInt("INSERT_BATCH_SIZE", 1000),
		UseTransactions:         getEnvBool("USE_TRANSACTIONS", true),
		TruncateBeforeRestore:   getEnvBool("TRUNCATE_BEFORE_RESTORE", true),
		DropOnRestore:           getEnvBool("DROP_ON_RESTORE", false),
		RecreateSchema:          getEnvBool("RECREATE_SCHEMA", false),
		DisableIndexesOnRestore: getEnvBool("DISABLE_INDEXES_ON_RESTORE", false),
		MaxRetries:              getEnvInt("MAX_RETRIES", 3),
		RetryBackoff:            getEnvInt("RETRY_BACKOFF", 2),
		VerifyChecksums:         getEnvBool("VERIFY_CHECKSUMS", false),
	}
}

// Validate checks invariants the pipelines rely on, mirroring the shape of
// the teacher's Config.Validate / ConfigError.
func (s Settings) Validate() error {
	if s.ChunkRows < 1 {
		return &Error{Field: "chunk-rows", Value: strconv.Itoa(s.ChunkRows), Message: "must be at least 1"}
	}
	if s.CompressLevel < 1 || s.CompressLevel > 9 {
		return &Error{Field: "compress-level", Value: strconv.Itoa(s.CompressLevel), Message: "must be between 1 and 9"}
	}
	if s.DumpMode != ModeCopy && s.DumpMode != ModeInsert {
		return &Error{Field: "dump-mode", Value: string(s.DumpMode), Message: "must be 'copy' or 'insert'"}
	}
	if s.InsertBatchSize < 1 {
		return &Error{Field: "insert-batch-size", Value: strconv.Itoa(s.InsertBatchSize), Message: "must be at least 1"}
	}
	if s.MaxRetries < 1 {
		return &Error{Field: "max-retries", Value: strconv.Itoa(s.MaxRetries), Message: "must be at least 1"}
	}
	if s.RetryBackoff < 0 {
		return &Error{Field: "retry-backoff", Value: strconv.Itoa(s.RetryBackoff), Message: "must be at least 0"}
	}
	return nil
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Value   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "' with value '" + e.Value + "': " + e.Message
}

func defaultDumpDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".dbchunk", "dumps")
	}
	return filepath.Join(wd, ".dbchunk", "dumps")
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
