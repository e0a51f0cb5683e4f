// Package config holds the optimizer's tunable thresholds and intervals.
// Every value has a default matching observed production behavior and can
// be overridden through QUERYOPT_-prefixed environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config carries all optimizer tunables.
type Config struct {
	// SlowQueryThreshold is the elapsed time above which an execution is
	// logged as slow.
	SlowQueryThreshold time.Duration `env:"QUERYOPT_SLOW_QUERY_THRESHOLD,default=100ms"`
	// IndexCandidateThreshold is the average time above which a statement
	// becomes an indexing candidate and counts as problematic in reports.
	IndexCandidateThreshold time.Duration `env:"QUERYOPT_INDEX_CANDIDATE_THRESHOLD,default=50ms"`
	// HotStatementThreshold is the execution count at which a statement
	// qualifies for a prepared handle.
	HotStatementThreshold int64 `env:"QUERYOPT_HOT_STATEMENT_THRESHOLD,default=10"`
	// CachingCandidateThreshold is the execution count at which a cheap
	// SELECT becomes a caching candidate during deep analysis.
	CachingCandidateThreshold int64 `env:"QUERYOPT_CACHING_CANDIDATE_THRESHOLD,default=100"`
	// StatementCacheCapacity bounds the prepared handle cache.
	StatementCacheCapacity int `env:"QUERYOPT_STATEMENT_CACHE_CAPACITY,default=10"`
	// HistoryCap bounds the performance history list.
	HistoryCap int `env:"QUERYOPT_HISTORY_CAP,default=10000"`
	// SlowQueryLogCap bounds the slow query log.
	SlowQueryLogCap int `env:"QUERYOPT_SLOW_QUERY_LOG_CAP,default=1000"`
	// RetentionWindow is how long metrics, handles, and log entries
	// survive without activity before cleanup removes them.
	RetentionWindow time.Duration `env:"QUERYOPT_RETENTION_WINDOW,default=24h"`
	// AnalysisInterval is the period of the lightweight monitoring task.
	AnalysisInterval time.Duration `env:"QUERYOPT_ANALYSIS_INTERVAL,default=1m"`
	// DeepAnalysisInterval is the period of the deep analysis task.
	DeepAnalysisInterval time.Duration `env:"QUERYOPT_DEEP_ANALYSIS_INTERVAL,default=5m"`
	// NPlusOneMinRun is the minimum number of same-shape executions that
	// constitutes a suspected N+1 pattern.
	NPlusOneMinRun int `env:"QUERYOPT_NPLUSONE_MIN_RUN,default=10"`
	// NPlusOneWindow is the time span those executions must fall within.
	NPlusOneWindow time.Duration `env:"QUERYOPT_NPLUSONE_WINDOW,default=5s"`
	// MaxStoredSQL is the length at which stored SQL text is truncated.
	MaxStoredSQL int `env:"QUERYOPT_MAX_STORED_SQL,default=200"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SlowQueryThreshold:        100 * time.Millisecond,
		IndexCandidateThreshold:   50 * time.Millisecond,
		HotStatementThreshold:     10,
		CachingCandidateThreshold: 100,
		StatementCacheCapacity:    10,
		HistoryCap:                10000,
		SlowQueryLogCap:           1000,
		RetentionWindow:           24 * time.Hour,
		AnalysisInterval:          time.Minute,
		DeepAnalysisInterval:      5 * time.Minute,
		NPlusOneMinRun:            10,
		NPlusOneWindow:            5 * time.Second,
		MaxStoredSQL:              200,
	}
}

// Load reads the configuration from the environment.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}
	return cfg, nil
}
