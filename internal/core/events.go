package core

import (
	"time"

	"github.com/coregx/queryopt/internal/analyzer"
)

// SlowQueryEvent is published on the slow-query channel when an execution
// exceeds the slow-query threshold.
type SlowQueryEvent struct {
	SQL           string
	QueryID       string
	ExecutionTime time.Duration
	Category      analyzer.Category
	Complexity    analyzer.Complexity
	Optimizations []string
	Timestamp     time.Time
}

// QueryErrorEvent is published on the query-error channel when the driver
// raises an error. The error is also returned to the caller unchanged.
type QueryErrorEvent struct {
	SQL       string
	QueryID   string
	Error     string
	Timestamp time.Time
}
