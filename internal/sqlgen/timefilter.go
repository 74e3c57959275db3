package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wyndhblb/caravel/internal/dialect"
	"github.com/wyndhblb/caravel/internal/domain"
)

// defaultDateFormat is the fallback strftime pattern for time literals.
const defaultDateFormat = "%Y-%m-%d %H:%M:%S.%f"

// conversionTimeLayout formats the instant fed into a column's
// dialect-specific conversion template.
const conversionTimeLayout = "2006-01-02 15:04:05"

// TimeFilter builds the inclusive range predicate over a time column: a
// conjunction of >= and <= comparisons of the column's expression against
// dialect-rendered literals. Bounds are embedded as literal SQL text, not
// parameter placeholders, so the predicate stays valid inside derived-table
// sources.
func TimeFilter(c *domain.Column, from, to time.Time, d dialect.Dialect) string {
	expr := ColumnExpr(c, d).Expr
	return fmt.Sprintf("%s >= %s AND %s <= %s",
		expr, TimeLiteral(c, from, d),
		expr, TimeLiteral(c, to, d))
}

// TimeLiteral renders an instant as a SQL literal for comparisons against
// the column. The rules apply in priority order:
//
//  1. The column's conversion template, applied to the instant formatted as
//     "YYYY-MM-DD HH:MM:SS".
//  2. Seconds since the Unix epoch when the format hint is epoch_s.
//  3. That value times 1000 when the hint is epoch_ms.
//  4. The dialect's datetime converter, falling back to a quoted string
//     formatted with the column's strftime pattern.
//
// This ordering is what lets the same logical time column work whether it
// is physically a timestamp, an epoch integer, or an epoch-millisecond
// integer.
func TimeLiteral(c *domain.Column, t time.Time, d dialect.Dialect) string {
	if c.DatabaseExpression != "" {
		return fmt.Sprintf(c.DatabaseExpression, t.Format(conversionTimeLayout))
	}
	format := c.DateFormat
	if format == "" {
		format = defaultDateFormat
	}
	switch format {
	case domain.FormatEpochS:
		return formatEpochFloat(epochSeconds(t))
	case domain.FormatEpochMS:
		return formatEpochFloat(epochSeconds(t) * 1000.0)
	}
	if lit, ok := d.ConvertDateTime(c.Type, t); ok {
		return lit
	}
	return "'" + strftime(t, format) + "'"
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// formatEpochFloat matches the decimal form of a float seconds value,
// keeping one trailing zero for integral values (e.g. "1577836800.0").
func formatEpochFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
