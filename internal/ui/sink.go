// Package ui implements the CLI's progress.Sink using lipgloss styling,
// grounded on the teacher's terminal-output conventions (colored
// success/warning lines, plain-text fallback) and scoped narrowly per
// spec.md's TUI non-goal: this is presentation only, a pure implementation
// of the progress-sink interface the core calls through, not the
// interactive menu/table/bubbletea program the teacher also carried.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"dbchunk/internal/humanize"
	"dbchunk/internal/progress"
)

var (
	styleTable   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Sink is a colored terminal implementation of progress.Sink: one styled
// line at Begin/End, an in-place carriage-return-updated line while chunks
// are in flight.
type Sink struct {
	w     io.Writer
	table string
	est   *progress.ETAEstimator
}

// NewSink returns a Sink writing to w (os.Stdout if w is nil).
func NewSink(w io.Writer) *Sink {
	if w == nil {
		w = os.Stdout
	}
	return &Sink{w: w}
}

func (s *Sink) Begin(table string, totalRows int64, startChunk, chunksTotal, chunkRows int) {
	s.table = table
	s.est = progress.NewETAEstimator(table, chunksTotal)
	if startChunk > 0 {
		s.est.UpdateProgress(startChunk)
	}

	resumeNote := ""
	if startChunk > 0 {
		resumeNote = styleDim.Render(fmt.Sprintf(" (resuming at chunk %d)", startChunk))
	}
	fmt.Fprintf(s.w, "%s %s rows, %d chunks%s\n",
		styleTable.Render("-> "+table), humanize.Comma(totalRows), chunksTotal, resumeNote)
}

func (s *Sink) Update(rowsDone int64, chunkIdx int, speed string) {
	if s.est == nil {
		return
	}
	s.est.UpdateProgress(chunkIdx)
	fmt.Fprintf(s.w, "\r   %s | %s rows | %s", s.est.FormatProgress(), humanize.Comma(rowsDone), speed)
}

func (s *Sink) End() {
	elapsed := ""
	if s.est != nil {
		elapsed = " in " + s.est.FormatElapsed()
	}
	fmt.Fprintf(s.w, "\n   %s\n", styleSuccess.Render(s.table+" done"+elapsed))
}
