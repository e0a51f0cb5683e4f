package core

import (
	"sort"
	"time"

	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/cache"
	"github.com/coregx/queryopt/internal/events"
)

// CategoryStats aggregates executions per workload category.
type CategoryStats struct {
	Count     int64         `json:"count"`
	TotalTime time.Duration `json:"total_time"`
	AvgTime   time.Duration `json:"avg_time"`
}

// ProblematicQuery is a statement whose average latency exceeds the index
// candidate threshold.
type ProblematicQuery struct {
	QueryID         string        `json:"query_id"`
	SQL             string        `json:"sql"`
	AvgTime         time.Duration `json:"avg_time"`
	TotalExecutions int64         `json:"total_executions"`
}

// PerformanceAnalysis is the lightweight periodic analysis result.
type PerformanceAnalysis struct {
	TotalQueries        int64                               `json:"total_queries"`
	CategoryPerformance map[analyzer.Category]CategoryStats `json:"category_performance"`
	ProblematicQueries  []ProblematicQuery                  `json:"problematic_queries,omitempty"`
	GeneratedAt         time.Time                           `json:"generated_at"`
}

// AnalyzePerformance aggregates the tracked metrics into per-category
// totals and problematic statements, and notifies performance-analysis
// subscribers.
func (o *Optimizer) AnalyzePerformance() *PerformanceAnalysis {
	o.mu.RLock()
	result := &PerformanceAnalysis{
		CategoryPerformance: make(map[analyzer.Category]CategoryStats),
		GeneratedAt:         o.now(),
	}

	for id, m := range o.metrics {
		result.TotalQueries += m.TotalExecutions

		stats := result.CategoryPerformance[m.Category]
		stats.Count += m.TotalExecutions
		stats.TotalTime += m.TotalTime
		result.CategoryPerformance[m.Category] = stats

		if m.SuccessfulExecutions > 0 && m.AvgTime > o.cfg.IndexCandidateThreshold {
			result.ProblematicQueries = append(result.ProblematicQueries, ProblematicQuery{
				QueryID:         id,
				SQL:             m.SQL,
				AvgTime:         m.AvgTime,
				TotalExecutions: m.TotalExecutions,
			})
		}
	}
	o.mu.RUnlock()

	for cat, stats := range result.CategoryPerformance {
		if stats.Count > 0 {
			stats.AvgTime = stats.TotalTime / time.Duration(stats.Count)
			result.CategoryPerformance[cat] = stats
		}
	}

	sort.Slice(result.ProblematicQueries, func(i, j int) bool {
		return result.ProblematicQueries[i].AvgTime > result.ProblematicQueries[j].AvgTime
	})

	o.bus.Publish(events.ChannelPerformanceAnalysis, *result)
	return result
}

// Report is a full snapshot of the optimizer's view of the workload.
type Report struct {
	GeneratedAt          time.Time            `json:"generated_at"`
	Performance          *PerformanceAnalysis `json:"performance"`
	SlowQueries          []SlowQueryEntry     `json:"slow_queries,omitempty"`
	IndexRecommendations []string             `json:"index_recommendations,omitempty"`
	Opportunities        []Opportunity        `json:"opportunities,omitempty"`
	Monitoring           bool                 `json:"monitoring"`
	CacheStats           cache.Stats          `json:"cache_stats"`
	EstimatedMemoryBytes int64                `json:"estimated_memory_bytes"`
}

// GenerateReport aggregates the performance analysis, slow-query log,
// index recommendations, active opportunities, monitoring status, and an
// estimated memory footprint into one snapshot.
func (o *Optimizer) GenerateReport() *Report {
	return &Report{
		GeneratedAt:          o.now(),
		Performance:          o.AnalyzePerformance(),
		SlowQueries:          o.SlowQueries(),
		IndexRecommendations: o.IndexRecommendations(),
		Opportunities:        o.OptimizationOpportunities(),
		Monitoring:           o.IsMonitoring(),
		CacheStats:           o.handles.Stats(),
		EstimatedMemoryBytes: o.EstimatedMemory(),
	}
}

// Approximate per-entry overheads for the memory estimate. The estimate
// only needs to grow monotonically with stored entry counts.
const (
	metricsEntryOverhead = 256
	historyEntryOverhead = 64
	slowEntryOverhead    = 128
	handleOverhead       = 96
)

// EstimatedMemory returns a rough footprint of the optimizer's stores.
func (o *Optimizer) EstimatedMemory() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var total int64
	for _, m := range o.metrics {
		total += metricsEntryOverhead + int64(len(m.SQL)+len(m.LastError))
	}
	total += int64(len(o.history)) * historyEntryOverhead
	for _, s := range o.slowLog {
		total += slowEntryOverhead + int64(len(s.SQL))
	}
	for _, r := range o.recommendations {
		total += int64(len(r))
	}
	total += int64(o.handles.Len()) * handleOverhead
	return total
}
