//go:build integration
// +build integration

package test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)

	"github.com/coregx/queryopt"
)

// DatabaseSetup encapsulates a database connection wrapped by an
// optimizer, plus cleanup.
type DatabaseSetup struct {
	DB        *sql.DB
	Optimizer *queryopt.Optimizer
	Container testcontainers.Container
	Dialect   string
}

// Close cleans up database resources.
func (ds *DatabaseSetup) Close() {
	if ds.Optimizer != nil {
		ds.Optimizer.StopMonitoring()
	}
	if ds.DB != nil {
		ds.DB.Close() //nolint:errcheck
	}
	if ds.Container != nil {
		ds.Container.Terminate(context.Background()) //nolint:errcheck
	}
}

// SetupSQLiteTestDB creates an in-memory SQLite database wrapped by an
// optimizer. Always works, no external dependencies.
func SetupSQLiteTestDB(t *testing.T, opts ...queryopt.Option) *DatabaseSetup {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	return &DatabaseSetup{
		DB:        db,
		Optimizer: queryopt.WrapDB(db, "sqlite::memory:", opts...),
		Dialect:   "sqlite",
	}
}

// SetupPostgreSQLTestDB creates a PostgreSQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupPostgreSQLTestDB(t *testing.T, opts ...queryopt.Option) *DatabaseSetup {
	ctx := context.Background()

	// Check for manual DSN first (allows testing without Docker)
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		require.NoError(t, err)
		require.NoError(t, db.Ping())
		return &DatabaseSetup{
			DB:        db,
			Optimizer: queryopt.WrapDB(db, dsn, opts...),
			Dialect:   "postgres",
		}
	}

	// Start PostgreSQL in Docker via testcontainers
	pgContainer, err := postgres.Run(
		ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for PostgreSQL integration tests: " + err.Error())
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	return &DatabaseSetup{
		DB:        db,
		Optimizer: queryopt.WrapDB(db, dsn, opts...),
		Container: pgContainer,
		Dialect:   "postgres",
	}
}

// SetupMySQLTestDB creates a MySQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupMySQLTestDB(t *testing.T, opts ...queryopt.Option) *DatabaseSetup {
	ctx := context.Background()

	// Check for manual DSN first
	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		// Ensure parseTime=true is set for time.Time support
		if !strings.Contains(dsn, "parseTime=true") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		db, err := sql.Open("mysql", dsn)
		require.NoError(t, err)
		require.NoError(t, db.Ping())
		return &DatabaseSetup{
			DB:        db,
			Optimizer: queryopt.WrapDB(db, "mysql://"+dsn, opts...),
			Dialect:   "mysql",
		}
	}

	// Start MySQL in Docker via testcontainers
	mysqlContainer, err := mysql.Run(
		ctx,
		"mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("user"),
		mysql.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for MySQL integration tests: " + err.Error())
	}

	dsn, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// parseTime=true enables time.Time parsing for DATETIME/TIMESTAMP
	// columns; without it the driver returns []uint8.
	dsn += "?parseTime=true"

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	return &DatabaseSetup{
		DB:        db,
		Optimizer: queryopt.WrapDB(db, "mysql://"+dsn, opts...),
		Container: mysqlContainer,
		Dialect:   "mysql",
	}
}

// CreateTicketsTable creates the tickets table used by the workload
// tests.
func CreateTicketsTable(t *testing.T, ds *DatabaseSetup) {
	var createSQL string

	switch ds.Dialect {
	case "postgres":
		createSQL = `
			CREATE TABLE IF NOT EXISTS tickets (
				id SERIAL PRIMARY KEY,
				event_id INTEGER NOT NULL,
				order_id INTEGER NOT NULL,
				qr_code VARCHAR(64) UNIQUE NOT NULL,
				validation_token VARCHAR(64),
				attendee_name VARCHAR(255),
				status VARCHAR(32) DEFAULT 'valid',
				checked_in INTEGER DEFAULT 0,
				is_valid INTEGER DEFAULT 1
			)
		`
	case "mysql":
		createSQL = `
			CREATE TABLE IF NOT EXISTS tickets (
				id INT AUTO_INCREMENT PRIMARY KEY,
				event_id INT NOT NULL,
				order_id INT NOT NULL,
				qr_code VARCHAR(64) UNIQUE NOT NULL,
				validation_token VARCHAR(64),
				attendee_name VARCHAR(255),
				status VARCHAR(32) DEFAULT 'valid',
				checked_in INT DEFAULT 0,
				is_valid INT DEFAULT 1
			)
		`
	case "sqlite":
		createSQL = `
			CREATE TABLE IF NOT EXISTS tickets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id INTEGER NOT NULL,
				order_id INTEGER NOT NULL,
				qr_code VARCHAR(64) UNIQUE NOT NULL,
				validation_token VARCHAR(64),
				attendee_name VARCHAR(255),
				status VARCHAR(32) DEFAULT 'valid',
				checked_in INTEGER DEFAULT 0,
				is_valid INTEGER DEFAULT 1
			)
		`
	}

	_, err := ds.DB.ExecContext(context.Background(), createSQL)
	require.NoError(t, err)
}

// CreateEventsTable creates the events table for statistics tests.
func CreateEventsTable(t *testing.T, ds *DatabaseSetup) {
	var createSQL string

	switch ds.Dialect {
	case "postgres":
		createSQL = `
			CREATE TABLE IF NOT EXISTS events (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				capacity INTEGER DEFAULT 0,
				tickets_available INTEGER DEFAULT 0
			)
		`
	case "mysql":
		createSQL = `
			CREATE TABLE IF NOT EXISTS events (
				id INT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				capacity INT DEFAULT 0,
				tickets_available INT DEFAULT 0
			)
		`
	case "sqlite":
		createSQL = `
			CREATE TABLE IF NOT EXISTS events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name VARCHAR(255) NOT NULL,
				capacity INTEGER DEFAULT 0,
				tickets_available INTEGER DEFAULT 0
			)
		`
	}

	_, err := ds.DB.ExecContext(context.Background(), createSQL)
	require.NoError(t, err)
}

// InsertTestTickets inserts count tickets for an event, with qr codes
// QR-1..QR-count, through the tracked execution path.
func InsertTestTickets(t *testing.T, ds *DatabaseSetup, eventID, count int) {
	ctx := context.Background()
	for i := 1; i <= count; i++ {
		_, err := ds.Optimizer.ExecuteWithTracking(ctx,
			insertTicketSQL(ds.Dialect),
			eventID, i, fmt.Sprintf("QR-%d", i), fmt.Sprintf("TOK-%d", i), fmt.Sprintf("Attendee %d", i))
		require.NoError(t, err)
	}
}

func insertTicketSQL(dialect string) string {
	if dialect == "postgres" {
		return `INSERT INTO tickets (event_id, order_id, qr_code, validation_token, attendee_name)
			VALUES ($1, $2, $3, $4, $5)`
	}
	return `INSERT INTO tickets (event_id, order_id, qr_code, validation_token, attendee_name)
		VALUES (?, ?, ?, ?, ?)`
}

// lookupTicketSQL is the per-ticket lookup statement, placeholder style
// per dialect.
func lookupTicketSQL(dialect string) string {
	if dialect == "postgres" {
		return "SELECT id, status, checked_in FROM tickets WHERE qr_code = $1"
	}
	return "SELECT id, status, checked_in FROM tickets WHERE qr_code = ?"
}
