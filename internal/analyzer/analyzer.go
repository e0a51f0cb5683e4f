// Package analyzer provides pattern-based SQL statement classification.
// It derives a statement's type, structural features, workload category,
// and complexity from the raw text without building an AST, so it never
// fails and never touches the database.
package analyzer

import (
	"regexp"
	"strings"
)

// QueryType is the statement's leading operation.
type QueryType string

const (
	TypeSelect QueryType = "SELECT"
	TypeInsert QueryType = "INSERT"
	TypeUpdate QueryType = "UPDATE"
	TypeDelete QueryType = "DELETE"
	TypeOther  QueryType = "OTHER"
)

// Category classifies a statement by the ticketing workload it serves.
// Categories drive index recommendations and row estimates.
type Category string

const (
	CategoryQRValidation     Category = "QR_VALIDATION"
	CategoryCheckIn          Category = "CHECK_IN"
	CategoryTicketValidation Category = "TICKET_VALIDATION"
	CategoryTicketLookup     Category = "TICKET_LOOKUP"
	CategoryEventStatistics  Category = "EVENT_STATISTICS"
	CategoryInventoryCheck   Category = "INVENTORY_CHECK"
	CategoryGeneral          Category = "GENERAL"
)

// Complexity buckets the structural complexity score.
type Complexity string

const (
	ComplexityLow    Complexity = "LOW"
	ComplexityMedium Complexity = "MEDIUM"
	ComplexityHigh   Complexity = "HIGH"
)

// Analysis is the result of classifying a single SQL statement.
// It is recomputed per call and never persisted.
type Analysis struct {
	QueryType       QueryType  `json:"query_type"`
	HasJoins        bool       `json:"has_joins"`
	HasSubqueries   bool       `json:"has_subqueries"`
	HasAggregations bool       `json:"has_aggregations"`
	UsesWildcard    bool       `json:"uses_wildcard"`
	Category        Category   `json:"category"`
	Complexity      Complexity `json:"complexity"`
	EstimatedRows   int64      `json:"estimated_rows"`
	Optimizations   []string   `json:"optimizations,omitempty"`
}

// Optimization suggestion messages appended by Analyze.
const (
	SuggestExactColumns = "Specify exact columns instead of SELECT *"
	SuggestJoins        = "Consider using JOINs instead of subqueries"
	SuggestLimit        = "Add LIMIT clause to prevent large result sets"
)

// Precompiled patterns, all matched against normalized (lowercased,
// whitespace-collapsed) text.
var (
	joinRe      = regexp.MustCompile(`\bjoin\b`)
	subqueryRe  = regexp.MustCompile(`\(\s*select\b`)
	aggregateRe = regexp.MustCompile(`\b(count|sum|avg)\s*\(`)
	groupByRe   = regexp.MustCompile(`\bgroup\s+by\b`)
	wildcardRe  = regexp.MustCompile(`select\s+(?:[a-z_][a-z0-9_]*\.)?\*`)
	limitRe     = regexp.MustCompile(`\blimit\b`)

	qrValidationRe     = regexp.MustCompile(`\bqr_code\s*=`)
	checkInRe          = regexp.MustCompile(`\bupdate\s+[a-z0-9_."]*tickets[a-z0-9_."]*\b.*\bset\b.*\bchecked_in\b`)
	ticketValidationRe = regexp.MustCompile(`\b(validation_token|is_valid)\s*=`)
	ticketTableRe      = regexp.MustCompile(`\btickets\b`)
	ticketLookupRe     = regexp.MustCompile(`\b(id|order_id)\s*=`)
	inventoryRe        = regexp.MustCompile(`\b(tickets_available|capacity)\b`)
)

// Analyze classifies a SQL statement. It is pure and deterministic: the
// same input always produces the same Analysis. Empty or blank input
// degrades to an OTHER/GENERAL analysis rather than failing.
func Analyze(sql string) Analysis {
	text := Normalize(sql)
	if text == "" {
		return Analysis{
			QueryType:     TypeOther,
			Category:      CategoryGeneral,
			Complexity:    ComplexityLow,
			EstimatedRows: 50,
		}
	}

	a := Analysis{
		QueryType:       detectType(text),
		HasJoins:        joinRe.MatchString(text),
		HasSubqueries:   subqueryRe.MatchString(text),
		HasAggregations: aggregateRe.MatchString(text) || groupByRe.MatchString(text),
		UsesWildcard:    wildcardRe.MatchString(text),
	}
	a.Category = detectCategory(text, a)
	a.Complexity = scoreComplexity(a)
	a.EstimatedRows = estimateRows(a.Category)
	a.Optimizations = suggest(text, a)
	return a
}

func detectType(text string) QueryType {
	switch {
	case strings.HasPrefix(text, "select"), strings.HasPrefix(text, "with"):
		return TypeSelect
	case strings.HasPrefix(text, "insert"):
		return TypeInsert
	case strings.HasPrefix(text, "update"):
		return TypeUpdate
	case strings.HasPrefix(text, "delete"):
		return TypeDelete
	default:
		return TypeOther
	}
}

// detectCategory applies the workload rules in priority order; the first
// match wins, independent of the statement type.
func detectCategory(text string, a Analysis) Category {
	switch {
	case qrValidationRe.MatchString(text):
		return CategoryQRValidation
	case checkInRe.MatchString(text):
		return CategoryCheckIn
	case ticketValidationRe.MatchString(text):
		return CategoryTicketValidation
	case ticketTableRe.MatchString(text) && ticketLookupRe.MatchString(text):
		return CategoryTicketLookup
	case a.HasAggregations && groupByRe.MatchString(text):
		return CategoryEventStatistics
	case inventoryRe.MatchString(text):
		return CategoryInventoryCheck
	default:
		return CategoryGeneral
	}
}

// scoreComplexity maps structural features to a bucket:
// +1 wildcard, +2 joins, +3 subqueries, +1 aggregations.
func scoreComplexity(a Analysis) Complexity {
	score := 0
	if a.UsesWildcard {
		score++
	}
	if a.HasJoins {
		score += 2
	}
	if a.HasSubqueries {
		score += 3
	}
	if a.HasAggregations {
		score++
	}
	switch {
	case score <= 1:
		return ComplexityLow
	case score <= 4:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

func estimateRows(c Category) int64 {
	switch c {
	case CategoryTicketLookup, CategoryQRValidation:
		return 1
	case CategoryEventStatistics:
		return 100
	default:
		return 50
	}
}

func suggest(text string, a Analysis) []string {
	var out []string
	if a.UsesWildcard {
		out = append(out, SuggestExactColumns)
	}
	if a.HasSubqueries {
		out = append(out, SuggestJoins)
	}
	if a.QueryType == TypeSelect && !limitRe.MatchString(text) {
		out = append(out, SuggestLimit)
	}
	return out
}
