package analysis

import (
	"sync/atomic"
	"time"
)

// progressTracker maintains the shared processed-commit count and derives
// best-effort progress snapshots for an optional consumer.
//
// The counter is a single atomic add so workers never stall on a lock, and
// snapshot emission is a non-blocking send: when the consumer's channel is
// full the snapshot is silently dropped. Progress reporting can never
// block or fail the analysis.
type progressTracker struct {
	total     int
	start     time.Time
	processed atomic.Int64
	sink      chan<- ProgressEstimate
}

// newProgressTracker creates a tracker for totalCommits commits. sink may
// be nil, which disables emission.
func newProgressTracker(totalCommits int, sink chan<- ProgressEstimate) *progressTracker {
	return &progressTracker{
		total: totalCommits,
		start: time.Now(),
		sink:  sink,
	}
}

// chunkDone records the completion of a chunk of n commits and emits a
// snapshot.
func (pt *progressTracker) chunkDone(n int) {
	processed := int(pt.processed.Add(int64(n)))

	if pt.sink == nil {
		return
	}

	select {
	case pt.sink <- pt.estimate(processed):
	default:
		// Consumer is behind; drop the snapshot.
	}
}

// estimate derives a snapshot from the current processed count.
func (pt *progressTracker) estimate(processed int) ProgressEstimate {
	elapsed := time.Since(pt.start).Seconds()

	var perSecond, estimatedTotal float64

	if elapsed > 0 {
		perSecond = float64(processed) / elapsed
	}

	if perSecond > 0 {
		estimatedTotal = float64(pt.total) / perSecond
	}

	return ProgressEstimate{
		TotalCommits:          pt.total,
		ProcessedCommits:      processed,
		ElapsedSeconds:        elapsed,
		CommitsPerSecond:      perSecond,
		EstimatedTotalSeconds: estimatedTotal,
	}
}

// processedCount returns the current processed-commit count.
func (pt *progressTracker) processedCount() int {
	return int(pt.processed.Load())
}
