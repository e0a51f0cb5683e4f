package dialects

import (
	"fmt"
	"strings"
)

// MySQLDialect renders MySQL recommendation DDL.
type MySQLDialect struct{}

func init() {
	Register(MySQL, &MySQLDialect{})
}

// Family returns the MySQL family.
func (d *MySQLDialect) Family() Family {
	return MySQL
}

// CreateIndexSQL renders a CREATE INDEX statement. MySQL has no
// IF NOT EXISTS for indexes.
func (d *MySQLDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s);",
		indexName(table, columns), table, strings.Join(columns, ", "))
}
