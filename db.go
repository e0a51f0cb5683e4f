// Package queryopt provides a query performance optimizer that sits
// between application code and a relational database driver. It
// classifies every statement, tracks per-statement execution statistics,
// detects slow and N+1 patterns, caches hot prepared-statement handles
// with LRU eviction, and produces optimization recommendations and
// reports. All analysis is pattern-based over the raw statement text.
package queryopt

import (
	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/cache"
	"github.com/coregx/queryopt/internal/config"
	"github.com/coregx/queryopt/internal/core"
	"github.com/coregx/queryopt/internal/dialects"
	"github.com/coregx/queryopt/internal/events"
	"github.com/coregx/queryopt/internal/logger"
	"github.com/coregx/queryopt/internal/tracer"
)

type (
	// Optimizer wraps a database driver with tracking, analysis, caching,
	// and reporting.
	Optimizer = core.Optimizer
	// Option is a functional option for configuring an Optimizer.
	Option = core.Option
	// Driver is the external database-execute collaborator.
	Driver = core.Driver
	// Result is the outcome of a successful driver execution.
	Result = core.Result
	// Config carries the optimizer's tunable thresholds and intervals.
	Config = config.Config

	// Analysis is the classification of a single SQL statement.
	Analysis = analyzer.Analysis
	// QueryMetrics accumulates execution statistics for one statement.
	QueryMetrics = core.QueryMetrics
	// HistoryEntry records one successful execution.
	HistoryEntry = core.HistoryEntry
	// SlowQueryEntry records one execution over the slow threshold.
	SlowQueryEntry = core.SlowQueryEntry
	// Handle is a cached prepared-statement handle.
	Handle = cache.Handle
	// Opportunity is one optimization finding from deep analysis.
	Opportunity = core.Opportunity
	// DeepAnalysis is the result of one deep analysis scan.
	DeepAnalysis = core.DeepAnalysis
	// PerformanceAnalysis is the lightweight periodic analysis result.
	PerformanceAnalysis = core.PerformanceAnalysis
	// Report is a full snapshot of the optimizer's workload view.
	Report = core.Report
	// Snapshot is the exportable internal state.
	Snapshot = core.Snapshot

	// SlowQueryEvent is the payload of slow-query notifications.
	SlowQueryEvent = core.SlowQueryEvent
	// QueryErrorEvent is the payload of query-error notifications.
	QueryErrorEvent = core.QueryErrorEvent
	// Channel names a notification stream.
	Channel = events.Channel
	// Handler receives published payloads.
	Handler = events.Handler

	// Logger is the structured logging interface.
	Logger = logger.Logger
	// Tracer starts spans around tracked executions.
	Tracer = tracer.Tracer
)

// Re-export core functions and options.
var (
	New    = core.New
	WrapDB = core.WrapDB

	WithConfig = core.WithConfig
	WithLogger = core.WithLogger
	WithTracer = core.WithTracer
	WithClock  = core.WithClock

	DefaultConfig = config.Default
	LoadConfig    = config.Load

	NewSlogAdapter = logger.NewSlogAdapter
	NewOtelTracer  = tracer.NewOtelTracer

	AnalyzeSQL  = analyzer.Analyze
	QueryID     = analyzer.QueryID
	Fingerprint = analyzer.Fingerprint

	DetectDialect = dialects.Detect
)

// Notification channels.
const (
	ChannelSlowQuery           = events.ChannelSlowQuery
	ChannelQueryError          = events.ChannelQueryError
	ChannelPerformanceAnalysis = events.ChannelPerformanceAnalysis
	ChannelDeepAnalysis        = events.ChannelDeepAnalysis
)
