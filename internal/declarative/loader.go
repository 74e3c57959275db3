package declarative

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wyndhblb/caravel/internal/domain"
)

// timeLayouts are accepted for query time bounds, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadDataset reads a dataset definition from a YAML file and validates it.
func LoadDataset(path string) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes and validates a dataset definition. Unknown YAML
// fields are rejected.
func ParseDataset(data []byte) (*domain.Dataset, error) {
	var doc DatasetDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	ds := &domain.Dataset{
		Name:           doc.Name,
		Schema:         doc.Schema,
		SQL:            doc.SQL,
		MainTimeColumn: doc.MainTimeColumn,
		Dialect:        doc.Dialect,
	}
	for _, c := range doc.Columns {
		ds.Columns = append(ds.Columns, &domain.Column{
			Name:               c.Name,
			Type:               c.Type,
			Expression:         c.Expression,
			IsTime:             c.IsTime,
			DateFormat:         c.DateFormat,
			DatabaseExpression: c.DatabaseExpression,
		})
	}
	for _, m := range doc.Metrics {
		ds.Metrics = append(ds.Metrics, &domain.Metric{
			Name:       m.Name,
			Expression: m.Expression,
			Label:      m.Label,
		})
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadQuery reads a query description from a YAML file.
func LoadQuery(path string) (*domain.QueryDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	return ParseQuery(data)
}

// ParseQuery decodes a query description. Unknown YAML fields are
// rejected.
func ParseQuery(data []byte) (*domain.QueryDescription, error) {
	var doc QueryDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	q := &domain.QueryDescription{
		Granularity:       doc.Granularity,
		TimeGrain:         doc.TimeGrain,
		GroupBy:           doc.GroupBy,
		Metrics:           doc.Metrics,
		Columns:           doc.Columns,
		Where:             doc.Where,
		Having:            doc.Having,
		RowLimit:          doc.RowLimit,
		SeriesLimit:       doc.SeriesLimit,
		SeriesLimitMetric: doc.SeriesLimitMetric,
		IsTimeseries:      doc.IsTimeseries,
	}

	var err error
	if q.From, err = parseTime(doc.From, "from"); err != nil {
		return nil, err
	}
	if q.To, err = parseTime(doc.To, "to"); err != nil {
		return nil, err
	}
	if q.InnerFrom, err = parseTime(doc.InnerFrom, "inner_from"); err != nil {
		return nil, err
	}
	if q.InnerTo, err = parseTime(doc.InnerTo, "inner_to"); err != nil {
		return nil, err
	}

	for _, f := range doc.Filters {
		q.Filters = append(q.Filters, domain.Filter{
			Column: f.Column,
			Op:     f.Op,
			Values: f.Values,
		})
	}
	for _, ob := range doc.OrderBy {
		q.OrderBy = append(q.OrderBy, domain.OrderBy{
			Column:    ob.Column,
			Ascending: ob.Ascending,
		})
	}
	return q, nil
}

// parseTime parses an optional time bound. An empty value is the zero time.
func parseTime(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.ErrValidation("%s: cannot parse time %q", field, value)
}

// decodeStrict decodes YAML rejecting unknown fields.
func decodeStrict(data []byte, target any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(target)
}
