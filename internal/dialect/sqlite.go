package dialect

import "time"

type sqliteDialect struct{}

func (d *sqliteDialect) Name() string { return "sqlite" }

func (d *sqliteDialect) QuoteIdentifier(s string) string { return quoteDouble(s) }

func (d *sqliteDialect) EpochToTimestamp() string {
	return "datetime({col}, 'unixepoch')"
}

func (d *sqliteDialect) EpochMillisToTimestamp() string {
	return "datetime({col} / 1000, 'unixepoch')"
}

var sqliteGrains = map[string]string{
	GrainSecond: "DATETIME(STRFTIME('%Y-%m-%dT%H:%M:%S', {col}))",
	GrainMinute: "DATETIME(STRFTIME('%Y-%m-%dT%H:%M:00', {col}))",
	GrainHour:   "DATETIME(STRFTIME('%Y-%m-%dT%H:00:00', {col}))",
	GrainDay:    "DATE({col})",
	GrainWeek:   "DATE({col}, -strftime('%w', {col}) || ' days')",
	GrainMonth:  "DATE({col}, -strftime('%d', {col}) || ' days', '+1 day')",
	GrainYear:   "DATE({col}, 'start of year')",
}

func (d *sqliteDialect) TimeGrain(name string) string {
	if g, ok := sqliteGrains[name]; ok {
		return g
	}
	return IdentityTemplate
}

// ConvertDateTime has no special handling: SQLite compares ISO-formatted
// strings lexicographically, which the quoted fallback already produces.
func (d *sqliteDialect) ConvertDateTime(columnType string, t time.Time) (string, bool) {
	return "", false
}
