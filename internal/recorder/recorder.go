package recorder

import (
	"time"

	"rsipulse/internal/model"
)

// CycleRecord summarizes one indicator recompute cycle.
type CycleRecord struct {
	Assets      int
	Computed    int
	Unavailable int
	Duration    time.Duration
}

// StreamEvent records a live-connection lifecycle transition.
type StreamEvent struct {
	From string
	To   string
}

// Recorder journals pipeline history for offline inspection. It is
// write-only: nothing recorded here is ever read back into the data model,
// so the no-persistence property of the pipeline holds regardless of the
// implementation behind it.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordStreamEvent(evt *StreamEvent) error
	RecordGlobalStats(stats model.GlobalStats) error
	Close() error
}
