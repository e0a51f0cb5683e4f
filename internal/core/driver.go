package core

import (
	"context"
	"database/sql"

	"github.com/coregx/queryopt/internal/analyzer"
)

// Result is the outcome of a successful driver execution. Rows is
// populated for row-returning statements; RowCount is the number of rows
// returned or affected.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int64
}

// Driver executes raw SQL. It is the optimizer's only collaborator; the
// optimizer never builds or rewrites statements.
type Driver interface {
	Execute(ctx context.Context, query string, args ...any) (*Result, error)
}

// SQLDriver adapts a *sql.DB to the Driver interface. Wrapping does not
// alter the *sql.DB in any way; callers that do not want tracking keep
// using it directly.
type SQLDriver struct {
	db *sql.DB
}

// NewSQLDriver wraps an existing *sql.DB.
func NewSQLDriver(db *sql.DB) *SQLDriver {
	return &SQLDriver{db: db}
}

// DB returns the underlying *sql.DB for untracked use.
func (d *SQLDriver) DB() *sql.DB {
	return d.db
}

// Execute runs a statement. Row-returning statements are scanned into
// generic maps; everything else reports rows affected.
func (d *SQLDriver) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	if analyzer.Analyze(query).QueryType == analyzer.TypeSelect {
		return d.query(ctx, query, args...)
	}
	return d.exec(ctx, query, args...)
}

func (d *SQLDriver) query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowCount = int64(len(res.Rows))
	return res, nil
}

func (d *SQLDriver) exec(ctx context.Context, query string, args ...any) (*Result, error) {
	execRes, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := execRes.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows; the execution itself
		// succeeded.
		affected = 0
	}
	return &Result{RowCount: affected}, nil
}

// WrapDB attaches tracking, analysis, and reporting onto an existing
// *sql.DB without altering its behavior for untracked callers. The dsn is
// used only for database family detection.
func WrapDB(db *sql.DB, dsn string, opts ...Option) *Optimizer {
	return New(NewSQLDriver(db), dsn, opts...)
}
