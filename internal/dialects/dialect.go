// Package dialects classifies connection strings into database families
// and renders family-specific DDL for index recommendations.
package dialects

import (
	"fmt"
	"strings"
)

// Family identifies the backing database family.
type Family string

const (
	Postgres Family = "postgresql"
	MySQL    Family = "mysql"
	SQLite   Family = "sqlite"
)

// Dialect renders database-specific recommendation text.
type Dialect interface {
	// Family returns the database family this dialect serves.
	Family() Family
	// CreateIndexSQL renders a CREATE INDEX statement for the given table
	// and columns.
	CreateIndexSQL(table string, columns []string) string
}

var dialects = make(map[Family]Dialect)

// Register registers a dialect for a family.
func Register(f Family, d Dialect) {
	dialects[f] = d
}

// For returns the dialect registered for a family, falling back to SQLite.
func For(f Family) Dialect {
	if d, ok := dialects[f]; ok {
		return d
	}
	return dialects[SQLite]
}

// Detect classifies a connection descriptor string. It only inspects the
// text; it never connects.
func Detect(dsn string) Family {
	lower := strings.ToLower(dsn)
	switch {
	case strings.Contains(lower, "postgres"):
		return Postgres
	case strings.Contains(lower, "mysql"):
		return MySQL
	default:
		return SQLite
	}
}

// ForDSN returns the dialect for a connection descriptor string.
func ForDSN(dsn string) Dialect {
	return For(Detect(dsn))
}

// indexName builds the conventional idx_<table>_<columns> identifier.
func indexName(table string, columns []string) string {
	return fmt.Sprintf("idx_%s_%s", table, strings.Join(columns, "_"))
}
