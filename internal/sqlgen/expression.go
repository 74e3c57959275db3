// Package sqlgen compiles a declarative query description against a loaded
// dataset into one executable SQL statement, including the optional
// series-limiting subquery of grouped time-series queries.
//
// Compilation is pure and holds no shared state: the same description and
// dataset always produce byte-identical SQL, and concurrent compilations
// need no coordination.
package sqlgen

import (
	"github.com/wyndhblb/caravel/internal/dialect"
	"github.com/wyndhblb/caravel/internal/domain"
)

// TimestampAlias is the fixed alias of the time axis in compiled SQL.
const TimestampAlias = "__timestamp"

// innerSuffix disambiguates inner subquery aliases from outer ones so the
// two can be joined without collision.
const innerSuffix = "__"

// LabeledExpr is a SQL scalar expression with its select-list alias.
//
// Literal marks fragments taken verbatim from metadata SQL; these are the
// fragments a parameter-style compiler percent-escapes. LiteralDateTime
// additionally marks literal, non-parameterized time-typed clauses, the
// only clauses eligible for the percent un-escape hook during rendering.
type LabeledExpr struct {
	Expr            string
	Alias           string
	Literal         bool
	LiteralDateTime bool
}

// ColumnExpr resolves a column to its SQL expression labeled with the
// column's logical name. A column without a raw expression resolves to its
// quoted identifier; a raw expression is used verbatim.
func ColumnExpr(c *domain.Column, d dialect.Dialect) LabeledExpr {
	if c.Expression == "" {
		return LabeledExpr{Expr: d.QuoteIdentifier(c.Name), Alias: c.Name}
	}
	return LabeledExpr{Expr: c.Expression, Alias: c.Name, Literal: true}
}

// TimestampExpr resolves a time column to its time-axis expression under
// the given grain, aliased to TimestampAlias.
//
// Epoch-typed columns are first converted to timestamps with the dialect's
// conversion template, then the grain's truncation template is applied. An
// unknown grain name resolves to the identity template.
func TimestampExpr(c *domain.Column, grain string, d dialect.Dialect) LabeledExpr {
	expr := c.Expression
	if expr == "" {
		expr = d.QuoteIdentifier(c.Name)
	}
	if c.Expression == "" && grain == "" {
		// Plain identifier reference: not a literal clause, so the percent
		// un-escape hook must not touch it.
		return LabeledExpr{Expr: expr, Alias: TimestampAlias}
	}
	if grain != "" {
		switch c.DateFormat {
		case domain.FormatEpochS:
			expr = dialect.ApplyTemplate(d.EpochToTimestamp(), expr)
		case domain.FormatEpochMS:
			expr = dialect.ApplyTemplate(d.EpochMillisToTimestamp(), expr)
		}
		expr = dialect.ApplyTemplate(d.TimeGrain(grain), expr)
	}
	return LabeledExpr{Expr: expr, Alias: TimestampAlias, Literal: true, LiteralDateTime: true}
}

// MetricExpr resolves a metric to its stored aggregate expression aliased
// to the metric's logical name. The expression's shape is not validated;
// the trust boundary is the metadata layer.
func MetricExpr(m *domain.Metric) LabeledExpr {
	return LabeledExpr{Expr: m.Expression, Alias: m.Name, Literal: true}
}
