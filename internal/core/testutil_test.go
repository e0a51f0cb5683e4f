package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregx/queryopt/internal/config"
)

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubDriver simulates the external database driver. Each call advances
// the shared clock by delay, so tracked durations are deterministic.
type stubDriver struct {
	clock  *testClock
	delay  time.Duration
	err    error
	result *Result
	calls  atomic.Int64
}

var errDriverDown = errors.New("driver: connection refused")

func (d *stubDriver) Execute(_ context.Context, _ string, _ ...any) (*Result, error) {
	d.calls.Add(1)
	if d.delay > 0 && d.clock != nil {
		d.clock.Advance(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.result != nil {
		return d.result, nil
	}
	return &Result{RowCount: 1}, nil
}

// newTestOptimizer builds an optimizer over a stub driver with a
// deterministic clock and fast-test configuration overrides.
func newTestOptimizer(mutate func(*config.Config), driverOpts ...func(*stubDriver)) (*Optimizer, *stubDriver, *testClock) {
	clock := newTestClock()
	driver := &stubDriver{clock: clock}
	for _, opt := range driverOpts {
		opt(driver)
	}

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	o := New(driver, "file:test.db",
		WithConfig(cfg),
		WithClock(clock.Now),
	)
	return o, driver, clock
}

func withDelay(d time.Duration) func(*stubDriver) {
	return func(s *stubDriver) { s.delay = d }
}

func withError(err error) func(*stubDriver) {
	return func(s *stubDriver) { s.err = err }
}
