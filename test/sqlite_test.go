//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/queryopt"
)

func TestSQLiteWorkflow(t *testing.T) {
	ds := SetupSQLiteTestDB(t)
	defer ds.Close()
	ctx := context.Background()

	CreateTicketsTable(t, ds)
	CreateEventsTable(t, ds)
	InsertTestTickets(t, ds, 1, 20)

	// Per-ticket lookups in a tight loop: the classic N+1 shape.
	lookup := lookupTicketSQL(ds.Dialect)
	for i := 1; i <= 15; i++ {
		res, err := ds.Optimizer.ExecuteWithTracking(ctx, lookup, fmt.Sprintf("QR-%d", i))
		require.NoError(t, err)
		require.Equal(t, int64(1), res.RowCount)
		assert.Contains(t, res.Rows[0], "status")
	}

	m, ok := ds.Optimizer.Metrics(queryopt.QueryID(lookup))
	require.True(t, ok)
	assert.Equal(t, int64(15), m.TotalExecutions)
	assert.Equal(t, int64(15), m.SuccessfulExecutions)

	// 15 executions crosses the hot threshold.
	h, ok := ds.Optimizer.PreparedStatement(lookup)
	require.True(t, ok)
	assert.Equal(t, lookup, h.Query)

	// The loop ran well inside the detection window.
	da := ds.Optimizer.PerformDeepAnalysis()
	var nPlusOne bool
	for _, opp := range da.Opportunities {
		if opp.Type == "N+1_QUERIES" {
			nPlusOne = true
		}
	}
	assert.True(t, nPlusOne, "per-ticket lookup loop should be flagged as N+1")

	report := ds.Optimizer.GenerateReport()
	require.NotNil(t, report.Performance)
	assert.Equal(t, int64(35), report.Performance.TotalQueries) // 20 inserts + 15 lookups
	assert.Positive(t, report.EstimatedMemoryBytes)
}

func TestSQLiteSlowQueryDetection(t *testing.T) {
	cfg := queryopt.DefaultConfig()
	cfg.SlowQueryThreshold = time.Nanosecond // everything is slow

	ds := SetupSQLiteTestDB(t, queryopt.WithConfig(cfg))
	defer ds.Close()
	ctx := context.Background()

	CreateTicketsTable(t, ds)
	InsertTestTickets(t, ds, 1, 1)

	var slowEvents int
	ds.Optimizer.Subscribe(queryopt.ChannelSlowQuery, func(any) { slowEvents++ })

	_, err := ds.Optimizer.ExecuteWithTracking(ctx,
		"SELECT id, status FROM tickets WHERE qr_code = 'QR-1'")
	require.NoError(t, err)

	assert.NotEmpty(t, ds.Optimizer.SlowQueries())
	assert.Equal(t, 1, slowEvents)

	recs := ds.Optimizer.IndexRecommendations()
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "qr_code")
	assert.Contains(t, recs[0], "IF NOT EXISTS")

	// The suggested DDL must be valid against the live database.
	_, err = ds.DB.ExecContext(ctx, recs[0])
	assert.NoError(t, err)
}

func TestSQLiteErrorTracking(t *testing.T) {
	ds := SetupSQLiteTestDB(t)
	defer ds.Close()

	var errEvents []queryopt.QueryErrorEvent
	ds.Optimizer.Subscribe(queryopt.ChannelQueryError, func(payload any) {
		errEvents = append(errEvents, payload.(queryopt.QueryErrorEvent))
	})

	sql := "SELECT * FROM no_such_table WHERE id = 1"
	res, err := ds.Optimizer.ExecuteWithTracking(context.Background(), sql)
	require.Error(t, err)
	assert.Nil(t, res)

	m, ok := ds.Optimizer.Metrics(queryopt.QueryID(sql))
	require.True(t, ok)
	assert.Equal(t, int64(1), m.FailedExecutions)
	assert.NotEmpty(t, m.LastError)

	require.Len(t, errEvents, 1)
	assert.Equal(t, sql, errEvents[0].SQL)
}

func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	ds := SetupSQLiteTestDB(t)
	defer ds.Close()
	ctx := context.Background()

	CreateTicketsTable(t, ds)
	InsertTestTickets(t, ds, 1, 5)

	lookup := lookupTicketSQL(ds.Dialect)
	_, err := ds.Optimizer.ExecuteWithTracking(ctx, lookup, "QR-1")
	require.NoError(t, err)

	snap := ds.Optimizer.ExportMetrics()

	fresh := queryopt.WrapDB(ds.DB, "sqlite::memory:")
	fresh.ImportMetrics(snap)

	m, ok := fresh.Metrics(queryopt.QueryID(lookup))
	require.True(t, ok)
	assert.Equal(t, int64(1), m.TotalExecutions)
	assert.Equal(t, ds.Optimizer.HistoryLen(), fresh.HistoryLen())
}

func TestSQLiteMonitoringLifecycle(t *testing.T) {
	cfg := queryopt.DefaultConfig()
	cfg.AnalysisInterval = 20 * time.Millisecond
	cfg.DeepAnalysisInterval = 20 * time.Millisecond

	ds := SetupSQLiteTestDB(t, queryopt.WithConfig(cfg))
	defer ds.Close()

	var analyses int
	done := make(chan struct{})
	ds.Optimizer.Subscribe(queryopt.ChannelPerformanceAnalysis, func(any) {
		analyses++
		if analyses == 1 {
			close(done)
		}
	})

	ds.Optimizer.StartMonitoring()
	assert.True(t, ds.Optimizer.IsMonitoring())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no periodic analysis within 2s")
	}

	ds.Optimizer.StopMonitoring()
	assert.False(t, ds.Optimizer.IsMonitoring())
}
