package progress

import (
	"fmt"
	"time"
)

// ETAEstimator tracks elapsed time and chunk progress for one table's
// dump or restore, grounded on the teacher's ETAEstimator (pre-transform)
// and original_source/dbtool/ui.py's ChunkProgress timing.
type ETAEstimator struct {
	startTime     time.Time
	operation     string
	totalItems    int
	itemsComplete int
}

// NewETAEstimator creates an estimator for operation, tracking progress
// against totalItems (chunksTotal).
func NewETAEstimator(operation string, totalItems int) *ETAEstimator {
	return &ETAEstimator{
		startTime:  time.Now(),
		operation:  operation,
		totalItems: totalItems,
	}
}

// UpdateProgress records the number of chunks completed so far.
func (e *ETAEstimator) UpdateProgress(itemsComplete int) {
	e.itemsComplete = itemsComplete
}

// GetElapsed returns elapsed time since the estimator was created.
func (e *ETAEstimator) GetElapsed() time.Duration {
	return time.Since(e.startTime)
}

// GetProgress returns current progress as a percentage.
func (e *ETAEstimator) GetProgress() float64 {
	if e.totalItems == 0 {
		return 0
	}
	return float64(e.itemsComplete) / float64(e.totalItems) * 100
}

// FormatElapsed returns formatted elapsed time, e.g. "25m 30s".
func (e *ETAEstimator) FormatElapsed() string {
	return FormatDuration(e.GetElapsed())
}

// FormatProgress returns a formatted progress string, e.g. "5/13 (38%)".
func (e *ETAEstimator) FormatProgress() string {
	return fmt.Sprintf("%d/%d (%.0f%%)", e.itemsComplete, e.totalItems, e.GetProgress())
}

// FormatDuration renders d the way the CLI prints elapsed/ETA times.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	if minutes > 0 {
		if seconds > 5 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%ds", seconds)
}
