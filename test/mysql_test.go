//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/queryopt"
)

func TestMySQLTrackedExecution(t *testing.T) {
	ds := SetupMySQLTestDB(t)
	defer ds.Close()
	ctx := context.Background()

	assert.Equal(t, "mysql", string(ds.Optimizer.Dialect()))

	CreateTicketsTable(t, ds)
	defer ds.DB.ExecContext(ctx, "DROP TABLE IF EXISTS tickets") //nolint:errcheck
	InsertTestTickets(t, ds, 1, 10)

	lookup := lookupTicketSQL(ds.Dialect)
	res, err := ds.Optimizer.ExecuteWithTracking(ctx, lookup, "QR-7")
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowCount)

	m, ok := ds.Optimizer.Metrics(queryopt.QueryID(lookup))
	require.True(t, ok)
	assert.Equal(t, int64(1), m.SuccessfulExecutions)
}

func TestMySQLIndexRecommendationDDL(t *testing.T) {
	cfg := queryopt.DefaultConfig()
	cfg.SlowQueryThreshold = time.Nanosecond

	ds := SetupMySQLTestDB(t, queryopt.WithConfig(cfg))
	defer ds.Close()
	ctx := context.Background()

	CreateTicketsTable(t, ds)
	defer ds.DB.ExecContext(ctx, "DROP TABLE IF EXISTS tickets") //nolint:errcheck
	InsertTestTickets(t, ds, 1, 1)

	_, err := ds.Optimizer.ExecuteWithTracking(ctx,
		"SELECT id, status FROM tickets WHERE qr_code = 'QR-1'")
	require.NoError(t, err)

	recs := ds.Optimizer.IndexRecommendations()
	require.NotEmpty(t, recs)

	// MySQL has no IF NOT EXISTS for indexes; the DDL omits it.
	assert.NotContains(t, recs[0], "IF NOT EXISTS")
	_, err = ds.DB.ExecContext(ctx, recs[0])
	assert.NoError(t, err)
}
