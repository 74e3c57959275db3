package declarative

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyndhblb/caravel/internal/domain"
)

const datasetYAML = `
name: events
schema: main
main_time_column: ts
dialect: duckdb
columns:
  - name: ts
    type: TIMESTAMP
    is_time: true
  - name: country
    type: VARCHAR
  - name: created
    type: BIGINT
    is_time: true
    date_format: epoch_s
  - name: revenue
    type: DOUBLE
    expression: price * quantity
metrics:
  - name: count
    expression: COUNT(*)
    label: Count
  - name: sum__num
    expression: SUM(num)
`

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset([]byte(datasetYAML))
	require.NoError(t, err)

	assert.Equal(t, "events", ds.Name)
	assert.Equal(t, "main", ds.Schema)
	assert.Equal(t, "ts", ds.MainTimeColumn)
	assert.Equal(t, "duckdb", ds.Dialect)
	require.Len(t, ds.Columns, 4)
	assert.True(t, ds.Column("ts").IsTime)
	assert.Equal(t, domain.FormatEpochS, ds.Column("created").DateFormat)
	assert.Equal(t, "price * quantity", ds.Column("revenue").Expression)
	require.Len(t, ds.Metrics, 2)
	assert.Equal(t, "COUNT(*)", ds.Metric("count").Expression)
	assert.Equal(t, "Count", ds.Metric("count").Label)
}

func TestParseDataset_RejectsUnknownFields(t *testing.T) {
	_, err := ParseDataset([]byte("name: events\nowner: bob\ncolumns: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dataset")
}

func TestParseDataset_ValidationFailureSurfaces(t *testing.T) {
	_, err := ParseDataset([]byte(`
name: events
columns:
  - name: ts
  - name: ts
`))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery([]byte(`
from: "2020-01-01"
to: "2020-01-02 12:00:00"
granularity: ts
time_grain: day
groupby: [country]
metrics: [count]
filters:
  - column: country
    op: in
    values: [US, FR]
order_by:
  - column: num
    ascending: true
row_limit: 100
series_limit: 5
series_limit_metric: sum__num
is_timeseries: true
`))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), q.From)
	assert.Equal(t, time.Date(2020, 1, 2, 12, 0, 0, 0, time.UTC), q.To)
	assert.True(t, q.InnerFrom.IsZero())
	assert.Equal(t, "ts", q.Granularity)
	assert.Equal(t, "day", q.TimeGrain)
	assert.Equal(t, []string{"country"}, q.GroupBy)
	assert.Equal(t, []string{"count"}, q.Metrics)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, domain.Filter{Column: "country", Op: "in", Values: []string{"US", "FR"}}, q.Filters[0])
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, domain.OrderBy{Column: "num", Ascending: true}, q.OrderBy[0])
	assert.Equal(t, 100, q.RowLimit)
	assert.Equal(t, 5, q.SeriesLimit)
	assert.Equal(t, "sum__num", q.SeriesLimitMetric)
	assert.True(t, q.IsTimeseries)
}

func TestParseQuery_RFC3339Times(t *testing.T) {
	q, err := ParseQuery([]byte("from: \"2020-01-01T06:30:00Z\"\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 6, 30, 0, 0, time.UTC), q.From)
}

func TestParseQuery_BadTime(t *testing.T) {
	_, err := ParseQuery([]byte("from: \"yesterday\"\n"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "yesterday")
}

func TestParseQuery_RejectsUnknownFields(t *testing.T) {
	_, err := ParseQuery([]byte("limit: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse query")
}

func TestLoadDataset_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(datasetYAML), 0o644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, "events", ds.Name)
}

func TestLoadDataset_MissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read dataset file")
}
