package domain

import "time"

// Filter operators accepted in structured filter clauses.
const (
	OpIn    = "in"
	OpNotIn = "not in"
)

// Query result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Filter is a structured membership predicate over one column.
type Filter struct {
	Column string
	Op     string
	Values []string
}

// OrderBy is one explicit ordering term. It only applies in flat-column
// mode; grouped queries always order by the main metric descending.
type OrderBy struct {
	Column    string
	Ascending bool
}

// QueryDescription is the declarative, dialect-agnostic description of one
// analytical query. It is constructed per request and never persisted.
type QueryDescription struct {
	From time.Time
	To   time.Time
	// InnerFrom/InnerTo, when set, override the time range of the
	// series-limiting subquery (a different lookback window than the outer
	// display window).
	InnerFrom time.Time
	InnerTo   time.Time

	// Granularity is the logical name of the time column used to bucket and
	// filter the query. An unknown name falls back to the dataset's main
	// time column.
	Granularity string
	// TimeGrain names a truncation unit in the dialect's grain table.
	TimeGrain string

	// GroupBy defines output column order and series-limit join key order.
	GroupBy []string
	// Metrics is ordered; the first metric is the default ordering metric.
	Metrics []string
	// Columns triggers flat-column mode when GroupBy is empty. Flat-column
	// mode is a non-aggregated dump mode and forces Metrics empty.
	Columns []string

	Filters []Filter
	// Where and Having are opaque pre-rendered SQL fragments. Each is
	// wrapped in parentheses before conjunction.
	Where  string
	Having string

	RowLimit int
	// SeriesLimit caps the number of distinct series in a grouped time
	// series via an inner ranking subquery.
	SeriesLimit int
	// SeriesLimitMetric, when set, ranks the inner subquery instead of the
	// main metric.
	SeriesLimitMetric string

	OrderBy      []OrderBy
	IsTimeseries bool
}

// CompiledQuery is the immutable output of compilation, consumed once by
// the executor.
type CompiledQuery struct {
	SQL     string
	Dialect string
	From    time.Time
	To      time.Time
}

// QueryResult is the sole success/failure channel from execution back to
// the caller.
type QueryResult struct {
	QueryID      string
	Status       string
	Columns      []string
	Rows         [][]any
	Duration     time.Duration
	Query        string
	ErrorMessage string
}
