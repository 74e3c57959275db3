package sqlgen

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wyndhblb/caravel/internal/domain"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Name:           "events",
		Schema:         "main",
		MainTimeColumn: "ts",
		Dialect:        "duckdb",
		Columns: []*domain.Column{
			{Name: "ts", Type: "TIMESTAMP", IsTime: true},
			{Name: "country", Type: "VARCHAR"},
			{Name: "num", Type: "BIGINT"},
			{Name: "revenue", Type: "DOUBLE", Expression: "price * quantity"},
		},
		Metrics: []*domain.Metric{
			{Name: "count", Expression: "COUNT(*)", Label: "Count"},
			{Name: "sum__num", Expression: "SUM(num)"},
		},
	}
}

func testRange() (time.Time, time.Time) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	return from, to
}

// flatten undoes pretty-printing so tests compare one-line SQL.
func flatten(sql string) string {
	return strings.ReplaceAll(sql, "\n", " ")
}

func build(t *testing.T, ds *domain.Dataset, q *domain.QueryDescription) string {
	t.Helper()
	compiled, err := NewBuilder(nil).Build(ds, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return flatten(compiled.SQL)
}

func TestBuild_FlatColumns(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:        from,
		To:          to,
		Granularity: "ts",
		Columns:     []string{"ts"},
		RowLimit:    10,
	})

	want := "SELECT ts AS ts" +
		" FROM main.events" +
		" WHERE ts >= '2020-01-01 00:00:00.000000' AND ts <= '2020-01-02 00:00:00.000000'" +
		" LIMIT 10"
	if sql != want {
		t.Errorf("got:\n%s\nwant:\n%s", sql, want)
	}
}

func TestBuild_GroupedTimeseries(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		RowLimit:     50000,
		IsTimeseries: true,
	})

	want := "SELECT country AS country, date_trunc('day', ts) AS __timestamp, COUNT(*) AS count" +
		" FROM main.events" +
		" WHERE ts >= '2020-01-01 00:00:00.000000' AND ts <= '2020-01-02 00:00:00.000000'" +
		" GROUP BY country, date_trunc('day', ts)" +
		" ORDER BY count DESC" +
		" LIMIT 50000"
	if sql != want {
		t.Errorf("got:\n%s\nwant:\n%s", sql, want)
	}
}

func TestBuild_SeriesLimitSubquery(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		RowLimit:     50000,
		SeriesLimit:  5,
		IsTimeseries: true,
	})

	sub := "SELECT country AS country__, COUNT(*) AS mme_inner__" +
		" FROM main.events" +
		" WHERE ts >= '2020-01-01 00:00:00.000000' AND ts <= '2020-01-02 00:00:00.000000'" +
		" GROUP BY country" +
		" ORDER BY mme_inner__ DESC" +
		" LIMIT 5"
	want := "SELECT country AS country, date_trunc('day', ts) AS __timestamp, COUNT(*) AS count" +
		" FROM main.events" +
		" JOIN (" + sub + ") AS inner_qry ON country = country__" +
		" WHERE ts >= '2020-01-01 00:00:00.000000' AND ts <= '2020-01-02 00:00:00.000000'" +
		" GROUP BY country, date_trunc('day', ts)" +
		" ORDER BY count DESC" +
		" LIMIT 50000"
	if sql != want {
		t.Errorf("got:\n%s\nwant:\n%s", sql, want)
	}
}

func TestBuild_UnknownMetricFails(t *testing.T) {
	from, to := testRange()
	compiled, err := NewBuilder(nil).Build(testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		GroupBy: []string{"country"},
		Metrics: []string{"bogus"},
	})
	if compiled != nil {
		t.Fatal("expected no compiled query on error")
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), `"bogus"`) {
		t.Errorf("error should name the metric: %v", err)
	}
}

func TestBuild_TimeseriesWithoutTimeColumnFails(t *testing.T) {
	ds := testDataset()
	ds.MainTimeColumn = ""
	for _, c := range ds.Columns {
		c.IsTime = false
	}
	_, err := NewBuilder(nil).Build(ds, &domain.QueryDescription{
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		IsTimeseries: true,
	})
	var cerr *domain.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "datetime column not provided") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuild_GranularityFallsBackToMainTimeColumn(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "never_heard_of_it",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		IsTimeseries: true,
	})
	if !strings.Contains(sql, "date_trunc('day', ts)") {
		t.Errorf("expected fallback to ts, got:\n%s", sql)
	}
	if !strings.Contains(sql, "ts >= '2020-01-01") {
		t.Errorf("expected time filter on ts, got:\n%s", sql)
	}
}

func TestBuild_UnknownGroupbyColumnFails(t *testing.T) {
	_, err := NewBuilder(nil).Build(testDataset(), &domain.QueryDescription{
		GroupBy: []string{"nope"},
		Metrics: []string{"count"},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestBuild_FlatColumnsDropMetrics(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:     from,
		To:       to,
		Columns:  []string{"country"},
		Metrics:  []string{"count"},
		RowLimit: 100,
	})
	if strings.Contains(sql, "COUNT(*)") {
		t.Errorf("flat-column mode must not aggregate, got:\n%s", sql)
	}
	if strings.Contains(sql, "GROUP BY") {
		t.Errorf("flat-column mode must not group, got:\n%s", sql)
	}
}

func TestBuild_RawSQLSourceBecomesDerivedTable(t *testing.T) {
	from, to := testRange()
	ds := testDataset()
	ds.SQL = "SELECT * FROM raw_events"
	sql := build(t, ds, &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
	})
	if !strings.Contains(sql, "FROM (SELECT * FROM raw_events) AS expr_qry") {
		t.Errorf("expected derived-table source, got:\n%s", sql)
	}
}

func TestBuild_StructuredFilters(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "country", Op: domain.OpIn, Values: []string{"US", "FR"}},
			{Column: "num", Op: domain.OpNotIn, Values: []string{"1", "2"}},
		},
	})
	if !strings.Contains(sql, "country IN ('US', 'FR')") {
		t.Errorf("missing in-predicate, got:\n%s", sql)
	}
	if !strings.Contains(sql, "num NOT IN (1, 2)") {
		t.Errorf("missing not-in-predicate, got:\n%s", sql)
	}
	// The time filter leads the conjunction.
	whereIdx := strings.Index(sql, "WHERE ")
	tsIdx := strings.Index(sql, "ts >=")
	inIdx := strings.Index(sql, "country IN")
	if !(whereIdx < tsIdx && tsIdx < inIdx) {
		t.Errorf("time filter must come first in WHERE, got:\n%s", sql)
	}
}

func TestBuild_FilterStripsQuotesBeforeCoercion(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "num", Op: domain.OpIn, Values: []string{"'5'", `"7"`}},
		},
	})
	if !strings.Contains(sql, "num IN (5, 7)") {
		t.Errorf("quoted numerics should coerce, got:\n%s", sql)
	}
}

func TestBuild_FilterNonNumericValueFails(t *testing.T) {
	from, to := testRange()
	_, err := NewBuilder(nil).Build(testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "num", Op: domain.OpIn, Values: []string{"abc"}},
		},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestBuild_FilterUnknownColumnFails(t *testing.T) {
	from, to := testRange()
	_, err := NewBuilder(nil).Build(testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "ghost", Op: domain.OpIn, Values: []string{"x"}},
		},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestBuild_FilterUnknownOpSkipped(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "country", Op: "like", Values: []string{"U%"}},
		},
	})
	if strings.Contains(sql, "like") || strings.Contains(sql, "U%") {
		t.Errorf("unsupported operator should be dropped, got:\n%s", sql)
	}
}

func TestBuild_FilterOnExpressionColumn(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country"},
		Filters: []domain.Filter{
			{Column: "revenue", Op: domain.OpIn, Values: []string{"10"}},
		},
	})
	if !strings.Contains(sql, "price * quantity IN (10)") {
		t.Errorf("expression columns filter on their expression, got:\n%s", sql)
	}
}

func TestBuild_OpaqueWhereAndHaving(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		Where:        "num > 10",
		Having:       "COUNT(*) > 5",
		IsTimeseries: true,
	})
	if !strings.Contains(sql, "AND (num > 10)") {
		t.Errorf("where fragment should be parenthesized after the time filter, got:\n%s", sql)
	}
	if !strings.Contains(sql, "HAVING (COUNT(*) > 5)") {
		t.Errorf("having fragment should be parenthesized, got:\n%s", sql)
	}
}

func TestBuild_InnerTimeRangeOverride(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		InnerFrom:    time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		InnerTo:      time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		SeriesLimit:  5,
		IsTimeseries: true,
	})
	if !strings.Contains(sql, "ts >= '2019-01-01 00:00:00.000000' AND ts <= '2019-12-31 00:00:00.000000'") {
		t.Errorf("subquery should use the inner range, got:\n%s", sql)
	}
	if !strings.Contains(sql, "ts >= '2020-01-01 00:00:00.000000'") {
		t.Errorf("outer query keeps its own range, got:\n%s", sql)
	}
}

func TestBuild_SeriesLimitMetricOverridesOrdering(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:              from,
		To:                to,
		Granularity:       "ts",
		TimeGrain:         "day",
		GroupBy:           []string{"country"},
		Metrics:           []string{"count"},
		SeriesLimit:       5,
		SeriesLimitMetric: "sum__num",
		IsTimeseries:      true,
	})
	// The limiting metric is not in the inner select list, so the ranking
	// term must be its aggregate expression, not an alias reference.
	if !strings.Contains(sql, "ORDER BY SUM(num) DESC LIMIT 5") {
		t.Errorf("subquery should rank by the limiting metric's expression, got:\n%s", sql)
	}
	if strings.Contains(sql, "ORDER BY sum__num") {
		t.Errorf("unselected alias must not be referenced, got:\n%s", sql)
	}
}

func TestBuild_SeriesLimitNeedsGroupbyAndTimeseries(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:        from,
		To:          to,
		Granularity: "ts",
		GroupBy:     []string{"country"},
		Metrics:     []string{"count"},
		SeriesLimit: 5,
	})
	if strings.Contains(sql, "inner_qry") {
		t.Errorf("non-timeseries query must not series-limit, got:\n%s", sql)
	}
}

func TestBuild_DefaultOrderingWithoutMetrics(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		IsTimeseries: true,
	})
	// The synthetic count is never selected, so ordering must use its
	// expression rather than the ccount alias.
	if !strings.Contains(sql, "ORDER BY COUNT(*) DESC") {
		t.Errorf("metricless grouped query orders by the synthetic count expression, got:\n%s", sql)
	}
	if strings.Contains(sql, "ccount") {
		t.Errorf("unselected alias must not be referenced, got:\n%s", sql)
	}
}

func TestBuild_ExplicitOrderByInFlatMode(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		Columns: []string{"country", "num"},
		OrderBy: []domain.OrderBy{
			{Column: "num", Ascending: true},
			{Column: "country"},
		},
	})
	if !strings.Contains(sql, "ORDER BY num ASC, country DESC") {
		t.Errorf("explicit order-by terms should render in order, got:\n%s", sql)
	}
}

func TestBuild_GroupedQueryIgnoresExplicitOrderBy(t *testing.T) {
	from, to := testRange()
	sql := build(t, testDataset(), &domain.QueryDescription{
		From:    from,
		To:      to,
		GroupBy: []string{"country"},
		Metrics: []string{"count"},
		OrderBy: []domain.OrderBy{{Column: "num", Ascending: true}},
	})
	if !strings.Contains(sql, "ORDER BY count DESC") || strings.Contains(sql, "num ASC") {
		t.Errorf("grouped queries always order by the main metric, got:\n%s", sql)
	}
}

func TestBuild_NoColumnsNoMetricsFails(t *testing.T) {
	from, to := testRange()
	_, err := NewBuilder(nil).Build(testDataset(), &domain.QueryDescription{
		From: from,
		To:   to,
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	from, to := testRange()
	q := &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count", "sum__num"},
		SeriesLimit:  5,
		RowLimit:     100,
		IsTimeseries: true,
	}
	first := build(t, testDataset(), q)
	second := build(t, testDataset(), q)
	if first != second {
		t.Errorf("compilation must be deterministic:\n%s\nvs\n%s", first, second)
	}
}

func TestBuild_MySQLEscapesLiteralPercents(t *testing.T) {
	from, to := testRange()
	ds := testDataset()
	ds.Dialect = "mysql"
	ds.Metrics = append(ds.Metrics, &domain.Metric{
		Name:       "pct_a",
		Expression: "COUNT(CASE WHEN country LIKE '%a%' THEN 1 END)",
	})
	sql := build(t, ds, &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "ts",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"pct_a"},
		IsTimeseries: true,
	})
	if !strings.Contains(sql, "LIKE '%%a%%'") {
		t.Errorf("metric percents should be doubled under mysql, got:\n%s", sql)
	}
	// The time-axis clause is exempt and the datetime literal keeps single
	// percent signs in its format string.
	if !strings.Contains(sql, "DATE(ts) AS __timestamp") {
		t.Errorf("time axis should stay unescaped, got:\n%s", sql)
	}
	if !strings.Contains(sql, "STR_TO_DATE('2020-01-01 00:00:00', '%Y-%m-%d %H:%i:%s')") {
		t.Errorf("datetime literal must keep single percents, got:\n%s", sql)
	}
}

func TestBuild_EpochColumnTimeFilter(t *testing.T) {
	from, to := testRange()
	ds := testDataset()
	ds.Columns = append(ds.Columns, &domain.Column{
		Name: "created", Type: "BIGINT", IsTime: true, DateFormat: domain.FormatEpochS,
	})
	sql := build(t, ds, &domain.QueryDescription{
		From:         from,
		To:           to,
		Granularity:  "created",
		TimeGrain:    "day",
		GroupBy:      []string{"country"},
		Metrics:      []string{"count"},
		IsTimeseries: true,
	})
	if !strings.Contains(sql, "date_trunc('day', to_timestamp(created)) AS __timestamp") {
		t.Errorf("epoch column should convert before truncation, got:\n%s", sql)
	}
	if !strings.Contains(sql, "created >= 1577836800.0 AND created <= 1577923200.0") {
		t.Errorf("epoch bounds render as float seconds, got:\n%s", sql)
	}
}
