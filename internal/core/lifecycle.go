package core

import (
	"fmt"
	"time"
)

// StartMonitoring launches the two periodic tasks: a lightweight
// performance analysis (which also runs retention cleanup) and the
// heavier deep analysis. Idempotent: calling it while monitoring is
// already active does nothing.
func (o *Optimizer) StartMonitoring() {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if o.monitoring {
		return
	}
	o.monitoring = true
	o.stopCh = make(chan struct{})

	o.wg.Add(2)
	go o.analysisLoop(o.stopCh)
	go o.deepAnalysisLoop(o.stopCh)

	o.log.Info("performance monitoring started",
		"analysis_interval", o.cfg.AnalysisInterval,
		"deep_analysis_interval", o.cfg.DeepAnalysisInterval)
}

// StopMonitoring cancels both periodic tasks and waits for them to
// finish. Idempotent.
func (o *Optimizer) StopMonitoring() {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if !o.monitoring {
		return
	}
	close(o.stopCh)
	o.wg.Wait()
	o.stopCh = nil
	o.monitoring = false

	o.log.Info("performance monitoring stopped")
}

// IsMonitoring reports whether the periodic tasks are running.
func (o *Optimizer) IsMonitoring() bool {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()
	return o.monitoring
}

// analysisLoop runs the lightweight analysis and retention cleanup on a
// ticker until stopped.
func (o *Optimizer) analysisLoop(stop <-chan struct{}) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.AnalysisInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.runProtected("performance-analysis", func() {
				o.AnalyzePerformance()
				o.CleanupOldMetrics()
			})
		case <-stop:
			return
		}
	}
}

// deepAnalysisLoop runs the deep analysis on a ticker until stopped.
func (o *Optimizer) deepAnalysisLoop(stop <-chan struct{}) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.DeepAnalysisInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.runProtected("deep-analysis", func() {
				o.PerformDeepAnalysis()
			})
		case <-stop:
			return
		}
	}
}

// runProtected keeps periodic task failures from escaping: a panic is
// recovered and logged, and the loop stays alive for the next tick.
func (o *Optimizer) runProtected(task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("periodic task failed",
				"task", task,
				"panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}

// CleanupOldMetrics removes metrics entries, prepared handles, slow-query
// entries, and history entries whose relevant timestamp is older than the
// retention window. Fresher entries are untouched.
func (o *Optimizer) CleanupOldMetrics() {
	cutoff := o.now().Add(-o.cfg.RetentionWindow)

	o.mu.Lock()
	for id, m := range o.metrics {
		if m.LastExecuted.Before(cutoff) {
			delete(o.metrics, id)
		}
	}

	o.slowLog = pruneSlowEntries(o.slowLog, cutoff)
	o.history = pruneHistoryEntries(o.history, cutoff)
	o.mu.Unlock()

	removed := o.handles.RemoveOlderThan(cutoff)
	if removed > 0 {
		o.log.Debug("stale prepared handles removed", "count", removed)
	}
}

// pruneSlowEntries drops entries older than the cutoff. Entries are
// appended in time order, so the survivors are a suffix.
func pruneSlowEntries(entries []SlowQueryEntry, cutoff time.Time) []SlowQueryEntry {
	for i, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			return append(entries[:0:0], entries[i:]...)
		}
	}
	return nil
}

func pruneHistoryEntries(entries []HistoryEntry, cutoff time.Time) []HistoryEntry {
	for i, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			return append(entries[:0:0], entries[i:]...)
		}
	}
	return nil
}
