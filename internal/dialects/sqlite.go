package dialects

import (
	"fmt"
	"strings"
)

// SQLiteDialect renders SQLite recommendation DDL. SQLite is the default
// family when a connection string mentions neither postgres nor mysql.
type SQLiteDialect struct{}

func init() {
	Register(SQLite, &SQLiteDialect{})
}

// Family returns the SQLite family.
func (d *SQLiteDialect) Family() Family {
	return SQLite
}

// CreateIndexSQL renders a guarded CREATE INDEX statement.
func (d *SQLiteDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
		indexName(table, columns), table, strings.Join(columns, ", "))
}
