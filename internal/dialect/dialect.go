// Package dialect supplies per-database SQL rendering rules: identifier
// quoting, time-grain truncation templates, epoch-to-timestamp conversion,
// and datetime literal formatting.
//
// Templates carry one free {col} substitution site. Grain lookup never
// fails: a grain name absent from the dialect's grain table resolves to the
// identity template, not an error.
package dialect

import (
	"strings"
	"time"
)

// IdentityTemplate is the fallback for unknown grain names.
const IdentityTemplate = "{col}"

// Dialect describes the rendering rules of one physical database kind.
type Dialect interface {
	// Name returns the registry name, e.g. "duckdb".
	Name() string

	// QuoteIdentifier quotes an identifier when it needs quoting.
	QuoteIdentifier(s string) string

	// EpochToTimestamp returns a template converting an epoch-seconds
	// expression into a timestamp expression.
	EpochToTimestamp() string

	// EpochMillisToTimestamp returns a template converting an
	// epoch-milliseconds expression into a timestamp expression.
	EpochMillisToTimestamp() string

	// TimeGrain returns the truncation template for the named grain, or the
	// identity template when the grain is unknown.
	TimeGrain(name string) string

	// ConvertDateTime renders an instant as a native datetime literal for
	// the given declared column type. The second return is false when the
	// dialect has no special handling and the caller should fall back to a
	// quoted formatted string.
	ConvertDateTime(columnType string, t time.Time) (string, bool)
}

// Grain names shared across dialects.
const (
	GrainSecond  = "second"
	GrainMinute  = "minute"
	GrainHour    = "hour"
	GrainDay     = "day"
	GrainWeek    = "week"
	GrainMonth   = "month"
	GrainQuarter = "quarter"
	GrainYear    = "year"
)

var registry = map[string]Dialect{
	"duckdb":   &duckdbDialect{},
	"postgres": &postgresDialect{},
	"mysql":    &mysqlDialect{},
	"sqlite":   &sqliteDialect{},
}

// Get returns the named dialect, defaulting to duckdb when the name is
// empty or unknown.
func Get(name string) Dialect {
	if d, ok := registry[strings.ToLower(name)]; ok {
		return d
	}
	return registry["duckdb"]
}

// ApplyTemplate substitutes expr into the template's {col} site.
func ApplyTemplate(template, expr string) string {
	return strings.ReplaceAll(template, "{col}", expr)
}

// quoteDouble quotes s with double quotes unless it is a plain lowercase
// identifier that needs none.
func quoteDouble(s string) string {
	if plainIdentifier(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// plainIdentifier reports whether s is all lowercase alphanumeric or
// underscore and therefore safe unquoted.
func plainIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
