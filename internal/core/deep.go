package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/events"
)

// OpportunityType categorizes an optimization opportunity.
type OpportunityType string

const (
	OpportunityCaching             OpportunityType = "CACHING"
	OpportunityIndexing            OpportunityType = "INDEXING"
	OpportunityNPlusOne            OpportunityType = "N+1_QUERIES"
	OpportunityMissingIndexes      OpportunityType = "MISSING_INDEXES"
	OpportunitySlowQueries         OpportunityType = "SLOW_QUERIES"
	OpportunityInefficientPatterns OpportunityType = "INEFFICIENT_PATTERNS"
)

// Severity grades an opportunity.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Opportunity is one optimization finding from deep analysis.
type Opportunity struct {
	Type       OpportunityType `json:"type"`
	Severity   Severity        `json:"severity"`
	Candidates []string        `json:"candidates,omitempty"`
	Details    string          `json:"details,omitempty"`
}

// DeepAnalysis is the result of one scan over accumulated metrics and
// history.
type DeepAnalysis struct {
	Opportunities []Opportunity `json:"optimization_opportunities"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// PerformDeepAnalysis scans the accumulated metrics and history for
// caching, indexing, and N+1 opportunities. It always succeeds and
// notifies deep-analysis subscribers with the result.
func (o *Optimizer) PerformDeepAnalysis() *DeepAnalysis {
	o.mu.Lock()
	result := &DeepAnalysis{GeneratedAt: o.now()}

	if opp, found := o.cachingOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}
	if opp, found := o.indexingOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}
	if opp, found := o.nPlusOneOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}
	if opp, found := o.missingIndexOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}
	if opp, found := o.slowQueryOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}
	if opp, found := o.inefficientPatternOpportunityLocked(); found {
		result.Opportunities = append(result.Opportunities, opp)
	}

	o.lastDeep = result
	o.mu.Unlock()

	o.bus.Publish(events.ChannelDeepAnalysis, *result)
	return result
}

// OptimizationOpportunities returns the findings of the most recent deep
// analysis, or nil if none has run yet.
func (o *Optimizer) OptimizationOpportunities() []Opportunity {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastDeep == nil {
		return nil
	}
	out := make([]Opportunity, len(o.lastDeep.Opportunities))
	copy(out, o.lastDeep.Opportunities)
	return out
}

// cachingOpportunityLocked collects cheap, frequent SELECTs whose results
// are worth caching at the application layer.
func (o *Optimizer) cachingOpportunityLocked() (Opportunity, bool) {
	var candidates []string
	for id, m := range o.metrics {
		if m.QueryType == analyzer.TypeSelect &&
			m.Complexity == analyzer.ComplexityLow &&
			m.TotalExecutions >= o.cfg.CachingCandidateThreshold {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return Opportunity{}, false
	}
	sort.Strings(candidates)
	return Opportunity{
		Type:       OpportunityCaching,
		Severity:   severityByCount(len(candidates)),
		Candidates: candidates,
		Details:    fmt.Sprintf("%d frequently executed low-complexity SELECT statements", len(candidates)),
	}, true
}

// indexingOpportunityLocked collects statements whose average latency
// exceeds the index candidate threshold.
func (o *Optimizer) indexingOpportunityLocked() (Opportunity, bool) {
	var candidates []string
	for id, m := range o.metrics {
		if m.SuccessfulExecutions > 0 && m.AvgTime > o.cfg.IndexCandidateThreshold {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return Opportunity{}, false
	}
	sort.Strings(candidates)
	return Opportunity{
		Type:       OpportunityIndexing,
		Severity:   severityByCount(len(candidates)),
		Candidates: candidates,
		Details: fmt.Sprintf("%d statements average above %v", len(candidates),
			o.cfg.IndexCandidateThreshold),
	}, true
}

// nPlusOneOpportunityLocked scans the history for runs of same-shape
// statements executed in rapid succession: at least NPlusOneMinRun
// entries sharing a fingerprint within NPlusOneWindow.
func (o *Optimizer) nPlusOneOpportunityLocked() (Opportunity, bool) {
	byShape := make(map[string][]time.Time)
	sample := make(map[string]string)
	for _, entry := range o.history {
		byShape[entry.Fingerprint] = append(byShape[entry.Fingerprint], entry.Timestamp)
		sample[entry.Fingerprint] = entry.QueryID
	}

	var flagged []string
	for shape, timestamps := range byShape {
		if len(timestamps) < o.cfg.NPlusOneMinRun {
			continue
		}
		// History is appended in execution order, so timestamps are
		// already chronological.
		for i := 0; i+o.cfg.NPlusOneMinRun <= len(timestamps); i++ {
			last := timestamps[i+o.cfg.NPlusOneMinRun-1]
			if last.Sub(timestamps[i]) <= o.cfg.NPlusOneWindow {
				flagged = append(flagged, o.describeShapeLocked(shape, sample[shape]))
				break
			}
		}
	}
	if len(flagged) == 0 {
		return Opportunity{}, false
	}
	sort.Strings(flagged)
	return Opportunity{
		Type:       OpportunityNPlusOne,
		Severity:   SeverityHigh,
		Candidates: flagged,
		Details: fmt.Sprintf("%d statement shapes executed %d+ times within %v; consider batching or a JOIN",
			len(flagged), o.cfg.NPlusOneMinRun, o.cfg.NPlusOneWindow),
	}, true
}

// describeShapeLocked resolves a fingerprint to a representative SQL text
// where possible.
func (o *Optimizer) describeShapeLocked(shape, queryID string) string {
	if m, ok := o.metrics[queryID]; ok {
		return m.SQL
	}
	return shape
}

func (o *Optimizer) missingIndexOpportunityLocked() (Opportunity, bool) {
	if len(o.recommendations) == 0 {
		return Opportunity{}, false
	}
	candidates := make([]string, len(o.recommendations))
	copy(candidates, o.recommendations)
	return Opportunity{
		Type:       OpportunityMissingIndexes,
		Severity:   severityByCount(len(candidates)),
		Candidates: candidates,
		Details:    fmt.Sprintf("%d index recommendations accumulated from slow queries", len(candidates)),
	}, true
}

func (o *Optimizer) slowQueryOpportunityLocked() (Opportunity, bool) {
	if len(o.slowLog) == 0 {
		return Opportunity{}, false
	}
	return Opportunity{
		Type:     OpportunitySlowQueries,
		Severity: severityByCount(len(o.slowLog)),
		Details: fmt.Sprintf("%d executions exceeded %v", len(o.slowLog),
			o.cfg.SlowQueryThreshold),
	}, true
}

// inefficientPatternOpportunityLocked flags repeatedly executed
// statements with wasteful shapes: wildcards or subqueries.
func (o *Optimizer) inefficientPatternOpportunityLocked() (Opportunity, bool) {
	var candidates []string
	for id, m := range o.metrics {
		if (m.UsesWildcard || m.HasSubqueries) && m.TotalExecutions >= o.cfg.HotStatementThreshold {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return Opportunity{}, false
	}
	sort.Strings(candidates)
	return Opportunity{
		Type:       OpportunityInefficientPatterns,
		Severity:   SeverityLow,
		Candidates: candidates,
		Details:    fmt.Sprintf("%d hot statements use SELECT * or subqueries", len(candidates)),
	}, true
}

func severityByCount(n int) Severity {
	switch {
	case n >= 10:
		return SeverityHigh
	case n >= 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
