// Package core implements the query performance optimizer engine:
// tracked execution, per-statement metrics, slow-query detection, index
// recommendation, prepared handle caching, deep analysis, reporting, and
// lifecycle management.
package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/queryopt/internal/cache"
	"github.com/coregx/queryopt/internal/config"
	"github.com/coregx/queryopt/internal/dialects"
	"github.com/coregx/queryopt/internal/events"
	"github.com/coregx/queryopt/internal/logger"
	"github.com/coregx/queryopt/internal/tracer"
)

// Optimizer sits between application code and a database driver. It owns
// all per-statement state; nothing it stores is shared with or mutable by
// the application beyond the read-only views it returns.
type Optimizer struct {
	driver   Driver
	dialect  dialects.Dialect
	cfg      config.Config
	log      logger.Logger
	sanitize *logger.Sanitizer
	trace    tracer.Tracer
	bus      *events.Bus
	now      func() time.Time

	// mu guards every store below. Metrics updates are fetch-or-create,
	// mutate, and store back under one hold of this lock, so interleaved
	// executions of the same statement never drop an update.
	mu              sync.RWMutex
	metrics         map[string]*QueryMetrics
	history         []HistoryEntry
	slowLog         []SlowQueryEntry
	recommendations []string
	recommendSeen   map[string]struct{}
	lastDeep        *DeepAnalysis

	handles *cache.HandleCache

	// lifecycleMu guards the monitoring state only.
	lifecycleMu sync.Mutex
	monitoring  bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// Option is a functional option for configuring an Optimizer.
type Option func(*Optimizer)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *Optimizer) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(o *Optimizer) {
		o.log = log
	}
}

// WithTracer sets the tracer. The default is a no-op.
func WithTracer(t tracer.Tracer) Option {
	return func(o *Optimizer) {
		o.trace = t
	}
}

// WithClock sets the time source. Tests use this for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		o.now = now
	}
}

// New creates an optimizer over the given driver. The dsn is used only to
// classify the database family for recommendation text; it is never
// dialed.
func New(driver Driver, dsn string, opts ...Option) *Optimizer {
	o := &Optimizer{
		driver:        driver,
		dialect:       dialects.ForDSN(dsn),
		cfg:           config.Default(),
		log:           &logger.NoopLogger{},
		sanitize:      logger.NewSanitizer(nil),
		trace:         &tracer.NoopTracer{},
		now:           time.Now,
		metrics:       make(map[string]*QueryMetrics),
		recommendSeen: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.bus = events.NewBus(o.log)
	o.handles = cache.NewWithClock(o.cfg.StatementCacheCapacity, func() time.Time { return o.now() })
	return o
}

// Subscribe registers a handler for one of the optimizer's notification
// channels and returns a token for Unsubscribe.
func (o *Optimizer) Subscribe(ch events.Channel, h events.Handler) uuid.UUID {
	return o.bus.Subscribe(ch, h)
}

// Unsubscribe removes a previously registered handler.
func (o *Optimizer) Unsubscribe(ch events.Channel, id uuid.UUID) bool {
	return o.bus.Unsubscribe(ch, id)
}

// Dialect returns the detected database family.
func (o *Optimizer) Dialect() dialects.Family {
	return o.dialect.Family()
}

// CacheStats returns the prepared handle cache counters.
func (o *Optimizer) CacheStats() cache.Stats {
	return o.handles.Stats()
}
