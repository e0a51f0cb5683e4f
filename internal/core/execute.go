package core

import (
	"context"

	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/cache"
	"github.com/coregx/queryopt/internal/events"
	"github.com/coregx/queryopt/internal/tracer"
)

// ExecuteWithTracking runs a statement through the driver while recording
// per-statement metrics and history. Driver errors are recorded and then
// returned unchanged; tracking never swallows a failure. Safe for
// concurrent use, including for the same statement.
func (o *Optimizer) ExecuteWithTracking(ctx context.Context, query string, args ...any) (*Result, error) {
	id := analyzer.QueryID(query)
	fp := analyzer.Fingerprint(query)
	a := analyzer.Analyze(query)

	ctx, span := o.trace.StartSpan(ctx, "queryopt.execute")
	defer span.End()

	start := o.now()
	res, err := o.driver.Execute(ctx, query, args...)
	end := o.now()
	elapsed := end.Sub(start)

	o.mu.Lock()
	m := o.metrics[id]
	if m == nil {
		m = newMetrics(query, a, o.cfg.MaxStoredSQL)
		o.metrics[id] = m
	}
	if err != nil {
		m.recordFailure(err, end)
	} else {
		m.recordSuccess(elapsed, end)
		o.appendHistoryLocked(HistoryEntry{
			QueryID:       id,
			Fingerprint:   fp,
			ExecutionTime: elapsed,
			Timestamp:     end,
		})
	}
	o.mu.Unlock()

	meta := tracer.ExecutionMetadata{
		SQL:      truncateSQL(query, o.cfg.MaxStoredSQL),
		QueryID:  id,
		Category: string(a.Category),
		Duration: elapsed,
		Database: string(o.dialect.Family()),
		Error:    err,
	}
	if res != nil {
		meta.RowCount = res.RowCount
	}
	tracer.AddExecutionAttributes(span, &meta)

	if err != nil {
		o.bus.Publish(events.ChannelQueryError, QueryErrorEvent{
			SQL:       query,
			QueryID:   id,
			Error:     err.Error(),
			Timestamp: end,
		})
		return nil, err
	}

	if elapsed > o.cfg.SlowQueryThreshold {
		o.handleSlowQuery(query, elapsed, a)
	}
	return res, nil
}

// AnalyzeQuery classifies a statement without executing it.
func (o *Optimizer) AnalyzeQuery(query string) analyzer.Analysis {
	return analyzer.Analyze(query)
}

// PreparedStatement returns the cached handle for a statement once it has
// crossed the hot execution-count threshold. Before that it reports
// false. Each call for a hot statement touches the handle: UseCount goes
// up, LastUsed is refreshed, and the entry moves to the front of the LRU
// order.
func (o *Optimizer) PreparedStatement(query string) (cache.Handle, bool) {
	id := analyzer.QueryID(query)

	o.mu.RLock()
	m := o.metrics[id]
	hot := m != nil && m.TotalExecutions >= o.cfg.HotStatementThreshold
	o.mu.RUnlock()

	if !hot {
		return cache.Handle{}, false
	}
	return o.handles.GetOrCreate(id, query), true
}
