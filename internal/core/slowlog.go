package core

import (
	"time"

	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/events"
)

// SlowQueryEntry records one execution that exceeded the slow-query
// threshold.
type SlowQueryEntry struct {
	SQL           string              `json:"sql"`
	ExecutionTime time.Duration       `json:"execution_time"`
	Category      analyzer.Category   `json:"category"`
	Complexity    analyzer.Complexity `json:"complexity"`
	Optimizations []string            `json:"optimizations,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// indexSensitiveColumns maps workload categories that benefit from an
// index to the columns used as fallback when the statement's WHERE
// columns cannot be extracted.
var indexSensitiveColumns = map[analyzer.Category][]string{
	analyzer.CategoryQRValidation:     {"qr_code"},
	analyzer.CategoryTicketLookup:     {"id"},
	analyzer.CategoryCheckIn:          {"checked_in"},
	analyzer.CategoryTicketValidation: {"validation_token"},
}

// handleSlowQuery appends to the bounded slow log, accumulates an index
// recommendation for index-sensitive categories, and notifies
// subscribers.
func (o *Optimizer) handleSlowQuery(query string, elapsed time.Duration, a analyzer.Analysis) {
	entry := SlowQueryEntry{
		SQL:           truncateSQL(query, o.cfg.MaxStoredSQL),
		ExecutionTime: elapsed,
		Category:      a.Category,
		Complexity:    a.Complexity,
		Optimizations: a.Optimizations,
		Timestamp:     o.now(),
	}

	o.mu.Lock()
	if len(o.slowLog) >= o.cfg.SlowQueryLogCap {
		drop := len(o.slowLog) - o.cfg.SlowQueryLogCap + 1
		o.slowLog = o.slowLog[drop:]
	}
	o.slowLog = append(o.slowLog, entry)

	if fallback, sensitive := indexSensitiveColumns[a.Category]; sensitive {
		o.addRecommendationLocked(query, fallback)
	}
	o.mu.Unlock()

	o.log.Warn("slow query detected",
		"query_id", analyzer.QueryID(query),
		"sql", o.sanitize.MaskSQL(entry.SQL),
		"category", string(a.Category),
		"elapsed", elapsed)

	o.bus.Publish(events.ChannelSlowQuery, SlowQueryEvent{
		SQL:           query,
		QueryID:       analyzer.QueryID(query),
		ExecutionTime: elapsed,
		Category:      a.Category,
		Complexity:    a.Complexity,
		Optimizations: a.Optimizations,
		Timestamp:     entry.Timestamp,
	})
}

// addRecommendationLocked synthesizes CREATE INDEX text for a slow
// statement and records it once. Adding the same suggestion twice has no
// effect. Must be called with mu held.
func (o *Optimizer) addRecommendationLocked(query string, fallbackColumns []string) {
	table := analyzer.TableName(query)
	if table == "" {
		table = "tickets"
	}
	columns := analyzer.WhereColumns(query)
	if len(columns) == 0 {
		columns = fallbackColumns
	}

	ddl := o.dialect.CreateIndexSQL(table, columns)
	if _, dup := o.recommendSeen[ddl]; dup {
		return
	}
	o.recommendSeen[ddl] = struct{}{}
	o.recommendations = append(o.recommendations, ddl)
}

// SlowQueries returns a copy of the slow-query log, oldest first.
func (o *Optimizer) SlowQueries() []SlowQueryEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]SlowQueryEntry, len(o.slowLog))
	copy(out, o.slowLog)
	return out
}

// IndexRecommendations returns the deduplicated CREATE INDEX suggestions
// in insertion order.
func (o *Optimizer) IndexRecommendations() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.recommendations))
	copy(out, o.recommendations)
	return out
}
