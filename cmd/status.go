package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dbchunk/internal/chunkio"
	"dbchunk/internal/humanize"
	"dbchunk/internal/manifest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report dump/restore progress for every table directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}

		dbDir := filepath.Join(settings.DumpDir, database)
		dirs, err := resolveTableDirs(dbDir, nil)
		if err != nil {
			return err
		}
		if len(dirs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no dumps found under", dbDir)
			return nil
		}

		w := cmd.OutOrStdout()
		for _, dir := range dirs {
			table := filepath.Base(dir)
			if !manifest.Exists(dir) {
				fmt.Fprintf(w, "%-24s  no manifest\n", table)
				continue
			}
			m, err := manifest.Load(dir)
			if err != nil {
				fmt.Fprintf(w, "%-24s  corrupt manifest: %v\n", table, err)
				continue
			}

			entries, err := chunkio.ListExistingChunks(dir)
			var size int64
			if err == nil {
				size, _ = chunkio.TotalSize(entries)
			}

			dumpState := "dumping"
			if m.IsFinished() {
				dumpState = "dumped"
			}

			restoreState := "not restored"
			if st, err := manifest.LoadState(dir); err == nil {
				switch {
				case m.ChunksTotal > 0 && st.ChunksRestored >= m.ChunksTotal:
					restoreState = "restored"
				case st.ChunksRestored > 0:
					restoreState = fmt.Sprintf("restoring (%d/%d)", st.ChunksRestored, m.ChunksTotal)
				}
			}

			fmt.Fprintf(w, "%-24s  %-8s  %d/%d chunks  %s rows  %s  %s\n",
				table, dumpState, m.ChunksCompleted, m.ChunksTotal,
				humanize.Comma(m.TotalRows), humanize.Bytes(size), restoreState)
		}

		return nil
	},
}
