package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/queryopt/internal/analyzer"
	"github.com/coregx/queryopt/internal/config"
	"github.com/coregx/queryopt/internal/events"
)

func TestAnalyzePerformance_Empty(t *testing.T) {
	o, _, _ := newTestOptimizer(nil)

	pa := o.AnalyzePerformance()
	require.NotNil(t, pa)
	assert.Equal(t, int64(0), pa.TotalQueries)
	assert.Empty(t, pa.CategoryPerformance)
	assert.Empty(t, pa.ProblematicQueries)
}

func TestAnalyzePerformance_CategoryTotals(t *testing.T) {
	o, driver, _ := newTestOptimizer(nil)
	ctx := context.Background()

	driver.delay = 10 * time.Millisecond
	for i := 0; i < 3; i++ {
		_, err := o.ExecuteWithTracking(ctx, "SELECT * FROM tickets WHERE qr_code = 'QR-1'")
		require.NoError(t, err)
	}
	driver.delay = 20 * time.Millisecond
	_, err := o.ExecuteWithTracking(ctx, "SELECT name FROM venues")
	require.NoError(t, err)

	pa := o.AnalyzePerformance()
	assert.Equal(t, int64(4), pa.TotalQueries)

	qr := pa.CategoryPerformance[analyzer.CategoryQRValidation]
	assert.Equal(t, int64(3), qr.Count)
	assert.Equal(t, 30*time.Millisecond, qr.TotalTime)
	assert.Equal(t, 10*time.Millisecond, qr.AvgTime)

	general := pa.CategoryPerformance[analyzer.CategoryGeneral]
	assert.Equal(t, int64(1), general.Count)
	assert.Equal(t, 20*time.Millisecond, general.AvgTime)
}

func TestAnalyzePerformance_ProblematicSortedByAvgDesc(t *testing.T) {
	o, driver, _ := newTestOptimizer(nil)
	ctx := context.Background()

	driver.delay = 60 * time.Millisecond
	_, err := o.ExecuteWithTracking(ctx, "SELECT name FROM venues WHERE city = 'Boulder'")
	require.NoError(t, err)

	driver.delay = 90 * time.Millisecond
	_, err = o.ExecuteWithTracking(ctx, "SELECT capacity FROM venues WHERE state = 'CO'")
	require.NoError(t, err)

	// Fast statement stays out of the problematic list.
	driver.delay = 5 * time.Millisecond
	_, err = o.ExecuteWithTracking(ctx, "SELECT status FROM tickets WHERE id = 1")
	require.NoError(t, err)

	pa := o.AnalyzePerformance()
	require.Len(t, pa.ProblematicQueries, 2)
	assert.Equal(t, 90*time.Millisecond, pa.ProblematicQueries[0].AvgTime)
	assert.Equal(t, 60*time.Millisecond, pa.ProblematicQueries[1].AvgTime)
	assert.Contains(t, pa.ProblematicQueries[0].SQL, "state = 'CO'")
}

func TestAnalyzePerformance_NotifiesSubscribers(t *testing.T) {
	o, _, _ := newTestOptimizer(nil)

	var received []PerformanceAnalysis
	o.Subscribe(events.ChannelPerformanceAnalysis, func(payload any) {
		received = append(received, payload.(PerformanceAnalysis))
	})

	pa := o.AnalyzePerformance()
	require.Len(t, received, 1)
	assert.Equal(t, pa.TotalQueries, received[0].TotalQueries)
}

func TestGenerateReport(t *testing.T) {
	o, _, _ := newTestOptimizer(func(cfg *config.Config) {
		cfg.HotStatementThreshold = 1
	}, withDelay(150*time.Millisecond))
	ctx := context.Background()

	_, err := o.ExecuteWithTracking(ctx, "SELECT * FROM tickets WHERE qr_code = 'QR-1'")
	require.NoError(t, err)
	_, ok := o.PreparedStatement("SELECT * FROM tickets WHERE qr_code = 'QR-1'")
	require.True(t, ok)
	o.PerformDeepAnalysis()

	report := o.GenerateReport()
	require.NotNil(t, report.Performance)
	assert.Equal(t, int64(1), report.Performance.TotalQueries)
	assert.Len(t, report.SlowQueries, 1)
	assert.Len(t, report.IndexRecommendations, 1)
	assert.NotEmpty(t, report.Opportunities)
	assert.False(t, report.Monitoring)
	assert.Equal(t, 1, report.CacheStats.Size)
	assert.Positive(t, report.EstimatedMemoryBytes)
}

func TestEstimatedMemory_GrowsWithState(t *testing.T) {
	o, _, _ := newTestOptimizer(nil)
	ctx := context.Background()

	base := o.EstimatedMemory()

	_, err := o.ExecuteWithTracking(ctx, "SELECT status FROM tickets WHERE id = 1")
	require.NoError(t, err)
	afterOne := o.EstimatedMemory()
	assert.Greater(t, afterOne, base)

	_, err = o.ExecuteWithTracking(ctx, "SELECT name FROM venues WHERE city = 'Boulder'")
	require.NoError(t, err)
	assert.Greater(t, o.EstimatedMemory(), afterOne)
}
