package core

import "time"

// Snapshot is the optimizer's exportable state. It is plain structured
// data: JSON-serializable and independent of any live handle or driver.
// Prepared handles are derived state and are not exported; they are
// rebuilt on demand after an import.
type Snapshot struct {
	ExportedAt           time.Time                `json:"exported_at"`
	Metrics              map[string]*QueryMetrics `json:"metrics"`
	History              []HistoryEntry           `json:"history"`
	SlowQueries          []SlowQueryEntry         `json:"slow_queries"`
	IndexRecommendations []string                 `json:"index_recommendations"`
}

// ExportMetrics returns a deep copy of the full internal state.
func (o *Optimizer) ExportMetrics() *Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap := &Snapshot{
		ExportedAt:           o.now(),
		Metrics:              make(map[string]*QueryMetrics, len(o.metrics)),
		History:              make([]HistoryEntry, len(o.history)),
		SlowQueries:          make([]SlowQueryEntry, len(o.slowLog)),
		IndexRecommendations: make([]string, len(o.recommendations)),
	}
	for id, m := range o.metrics {
		copied := *m
		snap.Metrics[id] = &copied
	}
	copy(snap.History, o.history)
	copy(snap.SlowQueries, o.slowLog)
	copy(snap.IndexRecommendations, o.recommendations)
	return snap
}

// ImportMetrics replaces the full internal state with the snapshot's.
// Overwrite semantics, not merge: anything tracked before the import is
// gone, and the prepared handle cache is cleared.
func (o *Optimizer) ImportMetrics(snap *Snapshot) {
	if snap == nil {
		return
	}

	o.mu.Lock()
	o.metrics = make(map[string]*QueryMetrics, len(snap.Metrics))
	for id, m := range snap.Metrics {
		copied := *m
		o.metrics[id] = &copied
	}
	o.history = append(o.history[:0:0], snap.History...)
	o.slowLog = append(o.slowLog[:0:0], snap.SlowQueries...)
	o.recommendations = append(o.recommendations[:0:0], snap.IndexRecommendations...)
	o.recommendSeen = make(map[string]struct{}, len(snap.IndexRecommendations))
	for _, r := range snap.IndexRecommendations {
		o.recommendSeen[r] = struct{}{}
	}
	o.lastDeep = nil
	o.mu.Unlock()

	o.handles.Clear()
}

// ResetMetrics clears all metrics, history, slow-query log,
// recommendations, and prepared handles unconditionally.
func (o *Optimizer) ResetMetrics() {
	o.mu.Lock()
	o.metrics = make(map[string]*QueryMetrics)
	o.history = nil
	o.slowLog = nil
	o.recommendations = nil
	o.recommendSeen = make(map[string]struct{})
	o.lastDeep = nil
	o.mu.Unlock()

	o.handles.Clear()
	o.log.Debug("metrics reset")
}
