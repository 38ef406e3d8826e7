package uploader

import (
	"math"
	"sync"
)

// Snapshot is one point-in-time view of an upload's progress.
type Snapshot struct {
	Loaded     int64
	Total      int64
	Percentage int
}

// ProgressFunc receives progress snapshots as an upload advances. Snapshots
// are monotonically non-decreasing; the terminal 100% snapshot is emitted
// exactly once, and only on success.
type ProgressFunc func(Snapshot)

// aggregator folds the per-part byte counters of concurrent uploads into a
// single progress signal. Per-part counts are high-water marks, so a part
// retried from scratch never moves the total backwards.
type aggregator struct {
	mu      sync.Mutex
	total   int64
	perPart map[int64]int64
	loaded  int64
	lastPct int
	emit    ProgressFunc
}

func newAggregator(total int64, emit ProgressFunc) *aggregator {
	return &aggregator{total: total, perPart: make(map[int64]int64), emit: emit}
}

// start emits the single initial zero snapshot.
func (a *aggregator) start() {
	if a.emit == nil {
		return
	}
	a.emit(Snapshot{Loaded: 0, Total: a.total, Percentage: 0})
}

// update records that the given part has sent loaded bytes so far.
func (a *aggregator) update(part, loaded int64) {
	if a.emit == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if loaded <= a.perPart[part] {
		return
	}
	a.loaded += loaded - a.perPart[part]
	a.perPart[part] = loaded
	pct := int(math.Round(float64(a.loaded) / float64(a.total) * 100))
	// 100% is reserved for the terminal snapshot.
	if pct > 99 {
		pct = 99
	}
	if pct < a.lastPct {
		pct = a.lastPct
	}
	a.lastPct = pct
	// Emitted under the lock so concurrent parts cannot deliver snapshots
	// out of order.
	a.emit(Snapshot{Loaded: a.loaded, Total: a.total, Percentage: pct})
}

// done emits the terminal snapshot once the whole upload has finished.
func (a *aggregator) done() {
	if a.emit == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = a.total
	a.lastPct = 100
	a.emit(Snapshot{Loaded: a.total, Total: a.total, Percentage: 100})
}
