package logger

import (
	"regexp"
	"strings"
)

// Sanitizer masks literal values in SQL text before it is written to
// logs. Ticketing statements carry secrets inline (QR codes, validation
// tokens), so any statement referencing a sensitive column has its quoted
// literals redacted.
type Sanitizer struct {
	maskValue string
	patterns  []*regexp.Regexp
}

var stringLiteralPattern = regexp.MustCompile(`'[^']*'`)

// NewSanitizer creates a sanitizer for the given sensitive column names.
// With no names, a default set for the ticketing domain is used.
func NewSanitizer(sensitiveColumns []string) *Sanitizer {
	if len(sensitiveColumns) == 0 {
		sensitiveColumns = []string{
			"qr_code", "validation_token",
			"token", "api_key", "apikey",
			"password", "secret", "auth",
		}
	}

	patterns := make([]*regexp.Regexp, 0, len(sensitiveColumns))
	for _, column := range sensitiveColumns {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(column)+`\b`))
	}

	return &Sanitizer{
		maskValue: "***REDACTED***",
		patterns:  patterns,
	}
}

// MaskSQL returns the SQL text with quoted literals redacted when the
// statement references a sensitive column. Statements without sensitive
// columns pass through unchanged.
func (s *Sanitizer) MaskSQL(sql string) string {
	if !s.containsSensitiveColumn(sql) {
		return sql
	}
	return stringLiteralPattern.ReplaceAllString(sql, "'"+s.maskValue+"'")
}

func (s *Sanitizer) containsSensitiveColumn(sql string) bool {
	lower := strings.ToLower(sql)
	for _, pattern := range s.patterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}
