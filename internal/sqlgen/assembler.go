package sqlgen

import (
	"strconv"
	"strings"

	"github.com/wyndhblb/caravel/internal/dialect"
	"github.com/wyndhblb/caravel/internal/domain"
	"github.com/wyndhblb/caravel/internal/template"
)

// innerMetricAlias is the fixed alias of the main metric inside the
// series-limiting subquery. Some dialects require order-by expressions in
// the select clause; others require a unique inner alias. A fixed suffix
// satisfies both.
const innerMetricAlias = "mme_inner__"

// derivedTableAlias names a raw-SQL dataset source used as a derived table.
const derivedTableAlias = "expr_qry"

// seriesSubqueryAlias names the inner series-limiting subquery in the join.
const seriesSubqueryAlias = "inner_qry"

// countAlias labels the synthetic COUNT(*) metric used for default
// ordering when no metrics are requested.
const countAlias = "ccount"

// Builder compiles query descriptions against one dataset. The zero-value
// expander field defaults to plain text passthrough.
type Builder struct {
	expander template.Expander
}

// NewBuilder returns a Builder using the given template expander for
// derived-table sources and opaque where/having fragments.
func NewBuilder(exp template.Expander) *Builder {
	if exp == nil {
		exp = template.NoopExpander{}
	}
	return &Builder{expander: exp}
}

// Build compiles the description into one SQL statement.
//
// ConfigurationError and ValidationError abort compilation; no partial SQL
// is ever returned alongside an error.
func (b *Builder) Build(ds *domain.Dataset, q *domain.QueryDescription) (*domain.CompiledQuery, error) {
	d := dialect.Get(ds.Dialect)
	opts := optionsFor(d)

	tctx := template.Context{
		Table:    ds.Name,
		From:     q.From,
		To:       q.To,
		RowLimit: q.RowLimit,
		GroupBy:  q.GroupBy,
		Metrics:  q.Metrics,
	}

	// Backward compatibility: an unknown granularity column silently falls
	// back to the configured main time column.
	granularity := q.Granularity
	if !containsString(ds.TimeColumns(), granularity) {
		granularity = ds.MainTimeColumn
	}
	if granularity == "" && q.IsTimeseries {
		return nil, domain.ErrConfiguration(
			"datetime column not provided as part of table configuration and is required by this type of chart")
	}

	// Every requested metric must resolve.
	var metricExprs []LabeledExpr
	for _, name := range q.Metrics {
		m := ds.Metric(name)
		if m == nil {
			return nil, domain.ErrValidation("metric %q is not valid", name)
		}
		metricExprs = append(metricExprs, MetricExpr(m))
	}
	mainMetric := LabeledExpr{Expr: "COUNT(*)", Alias: countAlias, Literal: true}
	if len(metricExprs) > 0 {
		mainMetric = metricExprs[0]
	}
	var seriesLimitMetric *LabeledExpr
	if m := ds.Metric(q.SeriesLimitMetric); m != nil {
		e := MetricExpr(m)
		seriesLimitMetric = &e
	}

	var selectExprs, groupbyExprs []LabeledExpr
	var innerSelectExprs, innerGroupbyExprs []LabeledExpr

	switch {
	case len(q.GroupBy) > 0:
		for _, name := range q.GroupBy {
			col := ds.Column(name)
			if col == nil {
				return nil, domain.ErrValidation("groupby column %q is not a known column", name)
			}
			outer := ColumnExpr(col, d)
			inner := outer
			inner.Alias = col.Name + innerSuffix

			groupbyExprs = append(groupbyExprs, outer)
			selectExprs = append(selectExprs, outer)
			innerGroupbyExprs = append(innerGroupbyExprs, inner)
			innerSelectExprs = append(innerSelectExprs, inner)
		}
	case len(q.Columns) > 0:
		// Flat-column mode: a raw dump, never aggregated.
		for _, name := range q.Columns {
			col := ds.Column(name)
			if col == nil {
				return nil, domain.ErrValidation("column %q is not a known column", name)
			}
			selectExprs = append(selectExprs, ColumnExpr(col, d))
		}
		metricExprs = nil
	}

	var dttmCol *domain.Column
	var timeFilter string
	if granularity != "" {
		dttmCol = ds.Column(granularity)
		if dttmCol == nil {
			return nil, domain.ErrConfiguration("time column %q is not a known column", granularity)
		}
		if q.IsTimeseries {
			timestamp := TimestampExpr(dttmCol, q.TimeGrain, d)
			selectExprs = append(selectExprs, timestamp)
			groupbyExprs = append(groupbyExprs, timestamp)
		}
		timeFilter = TimeFilter(dttmCol, q.From, q.To, d)
	}

	selectExprs = append(selectExprs, metricExprs...)
	if len(selectExprs) == 0 {
		return nil, domain.ErrValidation("query selects no columns and no metrics")
	}

	source, err := b.resolveSource(ds, d, tctx)
	if err != nil {
		return nil, err
	}

	whereAnd, err := b.buildStructuredFilters(ds, d, q.Filters)
	if err != nil {
		return nil, err
	}
	var havingAnd []string
	if q.Where != "" {
		expanded, err := b.expander.Expand(q.Where, tctx)
		if err != nil {
			return nil, domain.ErrValidation("where fragment: %s", err)
		}
		whereAnd = append(whereAnd, "("+expanded+")")
	}
	if q.Having != "" {
		expanded, err := b.expander.Expand(q.Having, tctx)
		if err != nil {
			return nil, domain.ErrValidation("having fragment: %s", err)
		}
		havingAnd = append(havingAnd, "("+expanded+")")
	}

	// Series limiting: restrict a grouped time series to the top-N series
	// ranked over the (possibly overridden) inner time window.
	if q.IsTimeseries && q.SeriesLimit > 0 && len(q.GroupBy) > 0 {
		innerMain := mainMetric
		innerMain.Alias = innerMetricAlias
		innerSelectExprs = append(innerSelectExprs, innerMain)

		innerFrom, innerTo := q.From, q.To
		if !q.InnerFrom.IsZero() {
			innerFrom = q.InnerFrom
		}
		if !q.InnerTo.IsZero() {
			innerTo = q.InnerTo
		}
		innerTimeFilter := TimeFilter(dttmCol, innerFrom, innerTo, d)

		// The default ranking metric is selected as mme_inner__, so its alias
		// is referenceable; an explicit limiting metric is not in the inner
		// select list and must be ordered by its expression.
		orderTerm := d.QuoteIdentifier(innerMetricAlias)
		if seriesLimitMetric != nil {
			orderTerm = renderExpr(*seriesLimitMetric, opts)
		}

		var sub strings.Builder
		sub.WriteString("SELECT ")
		sub.WriteString(selectList(innerSelectExprs, d, opts))
		sub.WriteString(" FROM ")
		sub.WriteString(source)
		sub.WriteString(" WHERE ")
		sub.WriteString(strings.Join(append(append([]string{}, whereAnd...), innerTimeFilter), " AND "))
		sub.WriteString(" GROUP BY ")
		sub.WriteString(exprList(innerGroupbyExprs, opts))
		sub.WriteString(" ORDER BY ")
		sub.WriteString(orderTerm)
		sub.WriteString(" DESC LIMIT ")
		sub.WriteString(strconv.Itoa(q.SeriesLimit))

		// Join the ranking subquery back on the positionally paired groupby
		// columns: outer expression = inner alias.
		var on []string
		for i, name := range q.GroupBy {
			on = append(on, renderExpr(groupbyExprs[i], opts)+" = "+d.QuoteIdentifier(name+innerSuffix))
		}
		source = source + " JOIN (" + sub.String() + ") AS " + seriesSubqueryAlias +
			" ON " + strings.Join(on, " AND ")
	}

	var outer strings.Builder
	outer.WriteString("SELECT ")
	outer.WriteString(selectList(selectExprs, d, opts))
	outer.WriteString(" FROM ")
	outer.WriteString(source)

	outerWhere := whereAnd
	if timeFilter != "" {
		outerWhere = append([]string{timeFilter}, whereAnd...)
	}
	if len(outerWhere) > 0 {
		outer.WriteString(" WHERE ")
		outer.WriteString(strings.Join(outerWhere, " AND "))
	}
	// Flat-column mode never groups.
	if len(q.Columns) == 0 || len(q.GroupBy) > 0 {
		if len(groupbyExprs) > 0 {
			outer.WriteString(" GROUP BY ")
			outer.WriteString(exprList(groupbyExprs, opts))
		}
	}
	if len(havingAnd) > 0 {
		outer.WriteString(" HAVING ")
		outer.WriteString(strings.Join(havingAnd, " AND "))
	}
	if len(q.GroupBy) > 0 {
		// Static default tie-break: grouped queries order by the main
		// metric descending. The synthetic metricless COUNT(*) is not in
		// the select list, so it is ordered by its expression.
		orderTerm := renderExpr(mainMetric, opts)
		if len(metricExprs) > 0 {
			orderTerm = d.QuoteIdentifier(mainMetric.Alias)
		}
		outer.WriteString(" ORDER BY ")
		outer.WriteString(orderTerm)
		outer.WriteString(" DESC")
	} else if len(q.OrderBy) > 0 {
		var terms []string
		for _, ob := range q.OrderBy {
			dir := " DESC"
			if ob.Ascending {
				dir = " ASC"
			}
			terms = append(terms, d.QuoteIdentifier(ob.Column)+dir)
		}
		outer.WriteString(" ORDER BY ")
		outer.WriteString(strings.Join(terms, ", "))
	}
	if q.RowLimit > 0 {
		outer.WriteString(" LIMIT ")
		outer.WriteString(strconv.Itoa(q.RowLimit))
	}

	return &domain.CompiledQuery{
		SQL:     Reindent(outer.String()),
		Dialect: d.Name(),
		From:    q.From,
		To:      q.To,
	}, nil
}

// resolveSource renders the query source: a raw SQL override becomes a
// template-expanded derived table, otherwise the schema-qualified table.
func (b *Builder) resolveSource(ds *domain.Dataset, d dialect.Dialect, tctx template.Context) (string, error) {
	if ds.SQL != "" {
		expanded, err := b.expander.Expand(ds.SQL, tctx)
		if err != nil {
			return "", domain.ErrValidation("dataset source: %s", err)
		}
		return "(" + expanded + ") AS " + derivedTableAlias, nil
	}
	name := d.QuoteIdentifier(ds.Name)
	if ds.Schema != "" {
		name = d.QuoteIdentifier(ds.Schema) + "." + name
	}
	return name, nil
}

// buildStructuredFilters turns in/not-in filter clauses into predicates.
// String values are stripped of surrounding quote characters; values for
// numeric columns must then coerce to numbers.
func (b *Builder) buildStructuredFilters(ds *domain.Dataset, d dialect.Dialect, filters []domain.Filter) ([]string, error) {
	var preds []string
	for _, f := range filters {
		if f.Column == "" || f.Op == "" || len(f.Values) == 0 {
			continue
		}
		if f.Op != domain.OpIn && f.Op != domain.OpNotIn {
			continue
		}
		col := ds.Column(f.Column)
		if col == nil {
			return nil, domain.ErrValidation("filter column %q is not a known column", f.Column)
		}
		rendered := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			stripped := strings.Trim(strings.Trim(v, "'"), `"`)
			if col.IsNumeric() {
				num, err := coerceNumber(stripped)
				if err != nil {
					return nil, domain.ErrValidation(
						"filter value %q for numeric column %q is not a number", v, f.Column)
				}
				rendered = append(rendered, num)
			} else {
				rendered = append(rendered, quoteString(stripped))
			}
		}
		expr := ColumnExpr(col, d).Expr
		pred := expr + " IN (" + strings.Join(rendered, ", ") + ")"
		if f.Op == domain.OpNotIn {
			pred = expr + " NOT IN (" + strings.Join(rendered, ", ") + ")"
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// coerceNumber parses a filter value as an integer first, then as a float.
func coerceNumber(s string) (string, error) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// quoteString renders a single-quoted SQL string literal.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func selectList(exprs []LabeledExpr, d dialect.Dialect, opts RenderOptions) string {
	items := make([]string, len(exprs))
	for i, e := range exprs {
		items[i] = renderExpr(e, opts) + " AS " + d.QuoteIdentifier(e.Alias)
	}
	return strings.Join(items, ", ")
}

func exprList(exprs []LabeledExpr, opts RenderOptions) string {
	items := make([]string, len(exprs))
	for i, e := range exprs {
		items[i] = renderExpr(e, opts)
	}
	return strings.Join(items, ", ")
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
