package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dbchunk/internal/humanize"
	"dbchunk/internal/pgcatalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables in the target database, largest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}

		ctx := cmd.Context()
		tables, err := pgcatalog.ListTables(ctx, conn.DSN(database))
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}

		w := cmd.OutOrStdout()
		for _, t := range tables {
			pk := "no pk"
			if len(t.PKColumns) > 0 {
				pk = fmt.Sprintf("pk(%v)", t.PKColumns)
			}
			fmt.Fprintf(w, "%-32s  ~%-12s rows  %-10s  %d cols  %s\n",
				t.FullName(), humanize.Comma(t.RowEstimate), humanize.Bytes(t.TotalSizeBytes), len(t.Columns), pk)
		}

		return nil
	},
}
