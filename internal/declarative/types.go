// Package declarative loads datasets and query descriptions from YAML
// files. It is file-based declarative input for the CLI and tests, not a
// metadata store.
package declarative

// DatasetDoc is the YAML shape of a dataset definition.
type DatasetDoc struct {
	Name           string      `yaml:"name"`
	Schema         string      `yaml:"schema,omitempty"`
	SQL            string      `yaml:"sql,omitempty"`
	MainTimeColumn string      `yaml:"main_time_column,omitempty"`
	Dialect        string      `yaml:"dialect,omitempty"`
	Columns        []ColumnDoc `yaml:"columns"`
	Metrics        []MetricDoc `yaml:"metrics,omitempty"`
}

// ColumnDoc is the YAML shape of one column.
type ColumnDoc struct {
	Name               string `yaml:"name"`
	Type               string `yaml:"type,omitempty"`
	Expression         string `yaml:"expression,omitempty"`
	IsTime             bool   `yaml:"is_time,omitempty"`
	DateFormat         string `yaml:"date_format,omitempty"`
	DatabaseExpression string `yaml:"database_expression,omitempty"`
}

// MetricDoc is the YAML shape of one metric.
type MetricDoc struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Label      string `yaml:"label,omitempty"`
}

// QueryDoc is the YAML shape of a query description. Times accept
// RFC 3339, "2006-01-02 15:04:05", or "2006-01-02".
type QueryDoc struct {
	From              string       `yaml:"from,omitempty"`
	To                string       `yaml:"to,omitempty"`
	InnerFrom         string       `yaml:"inner_from,omitempty"`
	InnerTo           string       `yaml:"inner_to,omitempty"`
	Granularity       string       `yaml:"granularity,omitempty"`
	TimeGrain         string       `yaml:"time_grain,omitempty"`
	GroupBy           []string     `yaml:"groupby,omitempty"`
	Metrics           []string     `yaml:"metrics,omitempty"`
	Columns           []string     `yaml:"columns,omitempty"`
	Filters           []FilterDoc  `yaml:"filters,omitempty"`
	Where             string       `yaml:"where,omitempty"`
	Having            string       `yaml:"having,omitempty"`
	RowLimit          int          `yaml:"row_limit,omitempty"`
	SeriesLimit       int          `yaml:"series_limit,omitempty"`
	SeriesLimitMetric string       `yaml:"series_limit_metric,omitempty"`
	OrderBy           []OrderByDoc `yaml:"order_by,omitempty"`
	IsTimeseries      bool         `yaml:"is_timeseries,omitempty"`
}

// FilterDoc is the YAML shape of one structured filter clause.
type FilterDoc struct {
	Column string   `yaml:"column"`
	Op     string   `yaml:"op"`
	Values []string `yaml:"values"`
}

// OrderByDoc is the YAML shape of one explicit ordering term.
type OrderByDoc struct {
	Column    string `yaml:"column"`
	Ascending bool   `yaml:"ascending,omitempty"`
}
