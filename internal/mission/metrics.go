package mission

import (
	"sync/atomic"
)

// Metrics tracks lifetime counters for a Mission. Every field uses relaxed
// atomics: there is no cross-field consistency guarantee (e.g. Excluded
// and LastExcludedPath may briefly disagree under concurrent updates),
// matching the scanner's own relaxed-ordering concurrency model.
type Metrics struct {
	excluded     atomic.Uint64
	included     atomic.Uint64
	lastExcluded atomic.Pointer[string]
}

// IncExcluded records that one more path was newly excluded.
func (m *Metrics) IncExcluded(path string) {
	m.excluded.Add(1)
	p := path
	m.lastExcluded.Store(&p)
}

// IncIncluded records that one more path was newly included (un-excluded).
func (m *Metrics) IncIncluded() {
	m.included.Add(1)
}

// Snapshot is a point-in-time read of the metrics.
type Snapshot struct {
	Excluded     uint64
	Included     uint64
	LastExcluded string
}

// Snapshot returns the current metric values.
func (m *Metrics) Snapshot() Snapshot {
	var last string
	if p := m.lastExcluded.Load(); p != nil {
		last = *p
	}
	return Snapshot{
		Excluded:     m.excluded.Load(),
		Included:     m.included.Load(),
		LastExcluded: last,
	}
}
