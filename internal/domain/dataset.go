package domain

import "strings"

const (
	// Column type classifications, matched by prefix against the declared
	// database type (e.g. "BIGINT", "VARCHAR(255)", "TIMESTAMP").
	TypeNumeric = "numeric"
	TypeString  = "string"
	TypeTime    = "time"

	// Time-format sentinels for columns physically stored as epoch integers.
	FormatEpochS  = "epoch_s"
	FormatEpochMS = "epoch_ms"
)

// Column is a logical column of a dataset. A column with an empty Expression
// refers to the physical column of the same name; a non-empty Expression is
// an arbitrary SQL fragment used verbatim. Metadata-level SQL is trusted.
type Column struct {
	Name string
	// Expression, when set, overrides the column identifier with a raw SQL
	// fragment.
	Expression string
	// Type is the declared database type, e.g. "BIGINT" or "TIMESTAMP".
	Type string
	// IsTime marks the column as usable as a time axis.
	IsTime bool
	// DateFormat is a strftime pattern used when rendering time literals,
	// or one of the FormatEpochS / FormatEpochMS sentinels.
	DateFormat string
	// DatabaseExpression is an optional dialect-specific conversion template
	// with one %s substitution site, applied to the instant formatted as
	// "YYYY-MM-DD HH:MM:SS". It takes priority over every other literal
	// rendering rule.
	DatabaseExpression string
}

// IsNumeric reports whether the declared type is a numeric type.
func (c *Column) IsNumeric() bool {
	return hasAnyPrefix(c.Type, "INT", "BIGINT", "SMALLINT", "TINYINT", "HUGEINT",
		"DOUBLE", "FLOAT", "REAL", "DECIMAL", "NUMERIC", "LONG")
}

// IsString reports whether the declared type is a string type.
func (c *Column) IsString() bool {
	return hasAnyPrefix(c.Type, "VARCHAR", "CHAR", "STRING", "TEXT")
}

// Metric is a named aggregate expression of a dataset. The expression is
// trusted metadata and used verbatim.
type Metric struct {
	Name       string
	Expression string
	Label      string
}

// Dataset is a fully loaded datasource: a physical table or an arbitrary SQL
// statement, its columns and metrics, and the dialect it compiles against.
// A Dataset is immutable during query compilation.
type Dataset struct {
	Name   string
	Schema string
	// SQL, when set, replaces the physical table as the query source. It may
	// contain template expressions expanded by the template collaborator.
	SQL string
	// MainTimeColumn is the default time axis, substituted when a requested
	// granularity column is not one of the known time columns.
	MainTimeColumn string
	Dialect        string
	Columns        []*Column
	Metrics        []*Metric
}

// Column returns the column with the given logical name, or nil.
func (d *Dataset) Column(name string) *Column {
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Metric returns the metric with the given logical name, or nil.
func (d *Dataset) Metric(name string) *Metric {
	for _, m := range d.Metrics {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// TimeColumns returns the names of all time-typed columns, with the main
// time column appended when it is not already declared as one.
func (d *Dataset) TimeColumns() []string {
	var names []string
	for _, c := range d.Columns {
		if c.IsTime {
			names = append(names, c.Name)
		}
	}
	if d.MainTimeColumn != "" && !containsString(names, d.MainTimeColumn) {
		names = append(names, d.MainTimeColumn)
	}
	return names
}

// FullName returns the schema-qualified table name.
func (d *Dataset) FullName() string {
	if d.Schema == "" {
		return d.Name
	}
	return d.Schema + "." + d.Name
}

// Validate checks that the dataset metadata is internally consistent.
func (d *Dataset) Validate() error {
	if d.Name == "" {
		return ErrValidation("dataset name is required")
	}
	seen := map[string]bool{}
	for _, c := range d.Columns {
		if c.Name == "" {
			return ErrValidation("dataset %q: column name is required", d.Name)
		}
		if seen[c.Name] {
			return ErrValidation("dataset %q: duplicate column %q", d.Name, c.Name)
		}
		seen[c.Name] = true
	}
	seen = map[string]bool{}
	for _, m := range d.Metrics {
		if m.Name == "" {
			return ErrValidation("dataset %q: metric name is required", d.Name)
		}
		if m.Expression == "" {
			return ErrValidation("dataset %q: metric %q: expression is required", d.Name, m.Name)
		}
		if seen[m.Name] {
			return ErrValidation("dataset %q: duplicate metric %q", d.Name, m.Name)
		}
		seen[m.Name] = true
	}
	if d.MainTimeColumn != "" && d.Column(d.MainTimeColumn) == nil {
		return ErrValidation("dataset %q: main time column %q is not a known column", d.Name, d.MainTimeColumn)
	}
	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	upper := strings.ToUpper(s)
	for _, p := range prefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
