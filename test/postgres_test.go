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

func TestPostgresTrackedExecution(t *testing.T) {
	ds := SetupPostgreSQLTestDB(t)
	defer ds.Close()
	ctx := context.Background()

	assert.Equal(t, "postgresql", string(ds.Optimizer.Dialect()))

	CreateTicketsTable(t, ds)
	defer ds.DB.ExecContext(ctx, "DROP TABLE IF EXISTS tickets") //nolint:errcheck
	InsertTestTickets(t, ds, 1, 10)

	lookup := lookupTicketSQL(ds.Dialect)
	res, err := ds.Optimizer.ExecuteWithTracking(ctx, lookup, "QR-3")
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowCount)

	m, ok := ds.Optimizer.Metrics(queryopt.QueryID(lookup))
	require.True(t, ok)
	assert.Equal(t, int64(1), m.TotalExecutions)
	assert.Equal(t, "QR_VALIDATION", string(m.Category))
}

func TestPostgresIndexRecommendationDDL(t *testing.T) {
	cfg := queryopt.DefaultConfig()
	cfg.SlowQueryThreshold = time.Nanosecond

	ds := SetupPostgreSQLTestDB(t, queryopt.WithConfig(cfg))
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
	assert.Contains(t, recs[0], "IF NOT EXISTS")

	// PostgreSQL accepts the suggested DDL as-is.
	_, err = ds.DB.ExecContext(ctx, recs[0])
	assert.NoError(t, err)
	defer ds.DB.ExecContext(ctx, "DROP INDEX IF EXISTS idx_tickets_qr_code") //nolint:errcheck
}
