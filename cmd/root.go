// Package cmd wires the cobra CLI surface onto the dump/restore core:
// connection and settings flags, the shared interrupt flag the core
// pipelines poll, and one subcommand per operation. Grounded on the
// teacher's cmd/root.go (persistent flags bound directly to a shared config
// struct, PersistentPreRunE loading a project-local config file with
// explicit flags taking priority).
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dbchunk/internal/config"
	"dbchunk/internal/interrupt"
	"dbchunk/internal/logger"
)

var (
	conn     config.Connection
	settings config.Settings
	log      logger.Logger

	database string

	intFlag = interrupt.New()
)

// RequestInterrupt marks an interrupt request on the flag every pipeline
// command polls at its chunk-loop boundaries. main.go calls this from its
// signal handler; it is safe to call more than once.
func RequestInterrupt() {
	intFlag.Request()
}

// InterruptEscalated reports whether RequestInterrupt has now been called
// twice in this run, the signal main.go treats as a demand to exit
// immediately instead of letting the pipeline pause at its loop boundary.
func InterruptEscalated() bool {
	return intFlag.Escalated()
}

var rootCmd = &cobra.Command{
	Use:   "dbchunk",
	Short: "Chunked PostgreSQL table dump and restore",
	Long: `dbchunk extracts and restores large PostgreSQL tables as a sequence of
ordered, resumable, self-describing chunk files.

Each table is paged through with server-side COPY, written to compressed
chunk files alongside a manifest that tracks progress, and later replayed
into a destination database chunk by chunk with configurable schema
handling, index management, and retry semantics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flagsSet := make(map[string]bool)
		cmd.Flags().Visit(func(f *pflag.Flag) { flagsSet[f.Name] = true })

		values, err := config.Load()
		if err != nil {
			log.Warn("failed to load local config", "error", err)
		} else if values != nil {
			saved := settings
			config.Apply(&settings, values)
			if flagsSet["chunk-rows"] {
				settings.ChunkRows = saved.ChunkRows
			}
			if flagsSet["compress"] {
				settings.Compress = saved.Compress
			}
			if flagsSet["dump-mode"] {
				settings.DumpMode = saved.DumpMode
			}
			if flagsSet["max-retries"] {
				settings.MaxRetries = saved.MaxRetries
			}
			if flagsSet["dump-dir"] {
				settings.DumpDir = saved.DumpDir
			}
			if flagsSet["compress-level"] {
				settings.CompressLevel = saved.CompressLevel
			}
			if flagsSet["retry-backoff"] {
				settings.RetryBackoff = saved.RetryBackoff
			}
			log.Info("loaded configuration from " + config.FileName)
		}

		return settings.Validate()
	},
}

// Execute registers every subcommand, binds persistent flags to defConn and
// defSettings, and runs the command tree against ctx.
func Execute(ctx context.Context, defConn config.Connection, defSettings config.Settings, lg logger.Logger) error {
	conn = defConn
	settings = defSettings
	log = lg

	rootCmd.PersistentFlags().StringVar(&conn.Host, "host", conn.Host, "database host")
	rootCmd.PersistentFlags().IntVar(&conn.Port, "port", conn.Port, "database port")
	rootCmd.PersistentFlags().StringVar(&conn.User, "user", conn.User, "database user")
	rootCmd.PersistentFlags().StringVar(&conn.Password, "password", conn.Password, "database password")
	rootCmd.PersistentFlags().StringVar(&database, "database", database, "target database name")

	rootCmd.PersistentFlags().StringVar(&settings.DumpDir, "dump-dir", settings.DumpDir, "root directory for chunk output/input")
	rootCmd.PersistentFlags().IntVar(&settings.ChunkRows, "chunk-rows", settings.ChunkRows, "rows per chunk")
	rootCmd.PersistentFlags().BoolVar(&settings.Compress, "compress", settings.Compress, "gzip chunk files")
	rootCmd.PersistentFlags().IntVar(&settings.CompressLevel, "compress-level", settings.CompressLevel, "gzip level (1-9)")
	rootCmd.PersistentFlags().StringVar((*string)(&settings.DumpMode), "dump-mode", string(settings.DumpMode), "chunk format: copy|insert")
	rootCmd.PersistentFlags().BoolVar(&settings.DumpSchema, "dump-schema", settings.DumpSchema, "write schema.sql alongside chunks")
	rootCmd.PersistentFlags().IntVar(&settings.InsertBatchSize, "insert-batch-size", settings.InsertBatchSize, "rows per multi-row INSERT")
	rootCmd.PersistentFlags().BoolVar(&settings.UseTransactions, "use-transactions", settings.UseTransactions, "wrap each insert-mode chunk in BEGIN/COMMIT")
	rootCmd.PersistentFlags().BoolVar(&settings.TruncateBeforeRestore, "truncate-before-restore", settings.TruncateBeforeRestore, "TRUNCATE before chunk 0")
	rootCmd.PersistentFlags().BoolVar(&settings.DropOnRestore, "drop-on-restore", settings.DropOnRestore, "DROP TABLE before chunk 0")
	rootCmd.PersistentFlags().BoolVar(&settings.RecreateSchema, "recreate-schema", settings.RecreateSchema, "run schema.sql before chunk 0")
	rootCmd.PersistentFlags().BoolVar(&settings.DisableIndexesOnRestore, "disable-indexes-on-restore", settings.DisableIndexesOnRestore, "drop non-PK indexes before chunk 0, rebuild after last")
	rootCmd.PersistentFlags().IntVar(&settings.MaxRetries, "max-retries", settings.MaxRetries, "restore retry attempts")
	rootCmd.PersistentFlags().IntVar(&settings.RetryBackoff, "retry-backoff", settings.RetryBackoff, "exponential backoff base, in seconds")
	rootCmd.PersistentFlags().BoolVar(&settings.VerifyChecksums, "verify-checksums", settings.VerifyChecksums, "write/verify a .sha256 sidecar per chunk")

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
}

func requireDatabase() error {
	if database == "" {
		return fmt.Errorf("--database is required")
	}
	return nil
}
