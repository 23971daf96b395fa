package loom

// Config holds the tunable constants of the storage core. It is a
// package-level var in the spirit of the teacher's config.go, mutable
// up until the first World is built.
var Config config = config{
	MinHandle:         1,
	MaxHandle:         ^uint64(0) >> 1,
	HiComponentID:     256,
	MaxEntitiesInType: 256,
	HiEntityID:        100000,
	MaxChildNodes:     256,
	BucketCount:       256,
	MaxJobsPerWorker:  16,
	SnapshotLevel:     3,
}

type config struct {
	// MinHandle and MaxHandle bound the monotonic entity id counter
	// (§3.1). Id 0 is always reserved as "none" regardless of MinHandle.
	MinHandle uint64
	MaxHandle uint64
	// HiComponentID is the threshold below which entity ids name
	// component types and may use dense storage (§3.1).
	HiComponentID uint64
	// MaxEntitiesInType bounds how many ids a single type may hold
	// (§3.3).
	MaxEntitiesInType int
	// HiEntityID is the span of the entity index's dense "lo" sparse
	// set; ids at or above it fall into the "hi" map (§4.1).
	HiEntityID uint64
	// MaxChildNodes is the dense-child span of a type trie node before
	// new children spill into the bucketed sparse map (§4.2).
	MaxChildNodes uint64
	// BucketCount is the number of hash buckets backing a trie node's
	// sparse children map (§4.2).
	BucketCount uint64
	// MaxJobsPerWorker bounds each worker's job queue (§5).
	MaxJobsPerWorker int
	// SnapshotLevel is the zstd compression level used for
	// World.Snapshot (SPEC_FULL domain stack).
	SnapshotLevel int
}

// SetLogger installs the package logger used for debug/error traces.
// See logging.go.
func (c *config) SetLogger(l Logger) {
	logger = l
}
