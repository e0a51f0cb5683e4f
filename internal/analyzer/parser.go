package analyzer

import (
	"regexp"
	"strings"
)

// Lightweight extraction helpers used by the index recommender. These are
// intentionally simple parsers over normalized text, not a SQL grammar.
var (
	fromTableRe   = regexp.MustCompile(`\b(?:from|update|into)\s+([a-z_][a-z0-9_]*)\b`)
	whereColumnRe = regexp.MustCompile(`\b([a-z_][a-z0-9_]*)\s*(?:=|>=|<=|!=|<>|>|<|like|in)\s*`)
)

// TableName extracts the primary table referenced by a statement.
// Returns an empty string when no table can be determined.
func TableName(sql string) string {
	matches := fromTableRe.FindStringSubmatch(Normalize(sql))
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// WhereColumns extracts the column names compared in a statement's WHERE
// clause, in order of appearance with duplicates removed.
func WhereColumns(sql string) []string {
	text := Normalize(sql)
	whereIdx := strings.Index(text, "where")
	if whereIdx == -1 {
		return nil
	}

	clause := text[whereIdx+len("where"):]
	for _, terminator := range []string{"order by", "group by", "limit", ";"} {
		if idx := strings.Index(clause, terminator); idx != -1 {
			clause = clause[:idx]
		}
	}

	seen := make(map[string]bool)
	var columns []string
	for _, match := range whereColumnRe.FindAllStringSubmatch(clause, -1) {
		col := match[1]
		if isKeyword(col) || seen[col] {
			continue
		}
		columns = append(columns, col)
		seen[col] = true
	}
	return columns
}

// isKeyword filters words that the column pattern can match but are not
// column names.
func isKeyword(word string) bool {
	switch word {
	case "and", "or", "not", "null", "true", "false",
		"case", "when", "then", "else", "end", "exists", "select":
		return true
	}
	return false
}
