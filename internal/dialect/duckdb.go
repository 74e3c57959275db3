package dialect

import "time"

type duckdbDialect struct{}

func (d *duckdbDialect) Name() string { return "duckdb" }

func (d *duckdbDialect) QuoteIdentifier(s string) string { return quoteDouble(s) }

func (d *duckdbDialect) EpochToTimestamp() string { return "to_timestamp({col})" }

func (d *duckdbDialect) EpochMillisToTimestamp() string { return "to_timestamp({col} / 1000)" }

var duckdbGrains = map[string]string{
	GrainSecond:  "date_trunc('second', {col})",
	GrainMinute:  "date_trunc('minute', {col})",
	GrainHour:    "date_trunc('hour', {col})",
	GrainDay:     "date_trunc('day', {col})",
	GrainWeek:    "date_trunc('week', {col})",
	GrainMonth:   "date_trunc('month', {col})",
	GrainQuarter: "date_trunc('quarter', {col})",
	GrainYear:    "date_trunc('year', {col})",
}

func (d *duckdbDialect) TimeGrain(name string) string {
	if g, ok := duckdbGrains[name]; ok {
		return g
	}
	return IdentityTemplate
}

// ConvertDateTime has no special handling: DuckDB accepts quoted
// "YYYY-MM-DD HH:MM:SS.ffffff" strings in timestamp comparisons.
func (d *duckdbDialect) ConvertDateTime(columnType string, t time.Time) (string, bool) {
	return "", false
}
