package analysis

import (
	"runtime"

	"github.com/Sumatoshi-tech/repostats/pkg/gitlib"
	"github.com/Sumatoshi-tech/repostats/pkg/mathutil"
)

const (
	// targetChunkMillis is the per-chunk processing budget.
	targetChunkMillis = 100

	// commitsPerMilli is the assumed per-commit diff throughput.
	commitsPerMilli = 5

	// defaultMinChunkSize and defaultMaxChunkSize clamp the chunk size.
	defaultMinChunkSize = 100
	defaultMaxChunkSize = 2000

	// workerShareNum/workerShareDen give workers 75% of available
	// parallelism, leaving headroom for other system load.
	workerShareNum = 3
	workerShareDen = 4
)

// chunkPlan is the partition of a commit sequence into units of dispatch.
type chunkPlan struct {
	ChunkSize int
	TaskCount int
	Chunks    [][]gitlib.Hash
}

// planChunks splits hashes into contiguous, non-overlapping chunks in
// enumeration order. The chunk size targets targetChunkMillis of work at
// the assumed throughput, clamped to [minSize, maxSize]; the final chunk
// may be shorter.
func planChunks(hashes []gitlib.Hash, minSize, maxSize, workers int) chunkPlan {
	if minSize <= 0 {
		minSize = defaultMinChunkSize
	}

	if maxSize <= 0 {
		maxSize = defaultMaxChunkSize
	}

	size := mathutil.Clamp(targetChunkMillis*commitsPerMilli, minSize, maxSize)

	var chunks [][]gitlib.Hash

	for start := 0; start < len(hashes); start += size {
		end := mathutil.Min(start+size, len(hashes))
		chunks = append(chunks, hashes[start:end])
	}

	return chunkPlan{
		ChunkSize: size,
		TaskCount: taskCount(workers),
		Chunks:    chunks,
	}
}

// taskCount returns the worker pool size: the configured count when
// positive, otherwise ceil(0.75 x available parallelism), minimum 1.
func taskCount(configured int) int {
	if configured > 0 {
		return configured
	}

	return mathutil.Max(1, mathutil.CeilDiv(workerShareNum*runtime.GOMAXPROCS(0), workerShareDen))
}
