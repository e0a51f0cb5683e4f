package dialects

import (
	"fmt"
	"strings"
)

// PostgresDialect renders PostgreSQL recommendation DDL.
type PostgresDialect struct{}

func init() {
	Register(Postgres, &PostgresDialect{})
}

// Family returns the PostgreSQL family.
func (d *PostgresDialect) Family() Family {
	return Postgres
}

// CreateIndexSQL renders a guarded CREATE INDEX statement.
func (d *PostgresDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
		indexName(table, columns), table, strings.Join(columns, ", "))
}
