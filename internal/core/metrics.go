package core

import (
	"time"

	"github.com/coregx/queryopt/internal/analyzer"
)

// QueryMetrics accumulates execution statistics for one statement
// identity. Created on first execution, updated on every execution, and
// removed once stale.
type QueryMetrics struct {
	SQL                  string              `json:"sql"`
	Category             analyzer.Category   `json:"category"`
	QueryType            analyzer.QueryType  `json:"query_type"`
	Complexity           analyzer.Complexity `json:"complexity"`
	UsesWildcard         bool                `json:"uses_wildcard"`
	HasSubqueries        bool                `json:"has_subqueries"`
	TotalExecutions      int64               `json:"total_executions"`
	SuccessfulExecutions int64               `json:"successful_executions"`
	FailedExecutions     int64               `json:"failed_executions"`
	MinTime              time.Duration       `json:"min_time"`
	MaxTime              time.Duration       `json:"max_time"`
	AvgTime              time.Duration       `json:"avg_time"`
	TotalTime            time.Duration       `json:"total_time"`
	LastExecuted         time.Time           `json:"last_executed"`
	LastError            string              `json:"last_error,omitempty"`
}

// HistoryEntry records one successful execution. The fingerprint carries
// the statement's literal-stripped shape so N+1 detection never re-parses
// SQL.
type HistoryEntry struct {
	QueryID       string        `json:"query_id"`
	Fingerprint   string        `json:"fingerprint"`
	ExecutionTime time.Duration `json:"execution_time"`
	Timestamp     time.Time     `json:"timestamp"`
}

// newMetrics seeds a metrics entry from a fresh analysis.
func newMetrics(sql string, a analyzer.Analysis, maxSQL int) *QueryMetrics {
	return &QueryMetrics{
		SQL:           truncateSQL(sql, maxSQL),
		Category:      a.Category,
		QueryType:     a.QueryType,
		Complexity:    a.Complexity,
		UsesWildcard:  a.UsesWildcard,
		HasSubqueries: a.HasSubqueries,
	}
}

// recordSuccess folds one successful execution into the running stats.
func (m *QueryMetrics) recordSuccess(elapsed time.Duration, at time.Time) {
	m.TotalExecutions++
	m.SuccessfulExecutions++
	if m.SuccessfulExecutions == 1 || elapsed < m.MinTime {
		m.MinTime = elapsed
	}
	if elapsed > m.MaxTime {
		m.MaxTime = elapsed
	}
	m.TotalTime += elapsed
	m.AvgTime = m.TotalTime / time.Duration(m.SuccessfulExecutions)
	m.LastExecuted = at
}

// recordFailure folds one failed execution into the running stats.
// Failures carry no timing; they only count and keep the error message.
func (m *QueryMetrics) recordFailure(err error, at time.Time) {
	m.TotalExecutions++
	m.FailedExecutions++
	m.LastError = err.Error()
	m.LastExecuted = at
}

// Metrics returns a copy of the stats for a statement identity.
func (o *Optimizer) Metrics(queryID string) (QueryMetrics, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.metrics[queryID]
	if !ok {
		return QueryMetrics{}, false
	}
	return *m, true
}

// MetricsCount returns the number of tracked statement identities.
func (o *Optimizer) MetricsCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.metrics)
}

// HistoryLen returns the current length of the performance history.
func (o *Optimizer) HistoryLen() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.history)
}

// appendHistoryLocked appends one entry, dropping the oldest when the cap
// is reached. Must be called with mu held.
func (o *Optimizer) appendHistoryLocked(entry HistoryEntry) {
	if len(o.history) >= o.cfg.HistoryCap {
		drop := len(o.history) - o.cfg.HistoryCap + 1
		o.history = o.history[drop:]
	}
	o.history = append(o.history, entry)
}

func truncateSQL(sql string, max int) string {
	if max > 0 && len(sql) > max {
		return sql[:max]
	}
	return sql
}
