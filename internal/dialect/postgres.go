package dialect

import (
	"fmt"
	"strings"
	"time"
)

type postgresDialect struct{}

func (d *postgresDialect) Name() string { return "postgres" }

func (d *postgresDialect) QuoteIdentifier(s string) string { return quoteDouble(s) }

func (d *postgresDialect) EpochToTimestamp() string {
	return "(timestamp 'epoch' + {col} * interval '1 second')"
}

func (d *postgresDialect) EpochMillisToTimestamp() string {
	return "(timestamp 'epoch' + {col} * interval '1 millisecond')"
}

var postgresGrains = map[string]string{
	GrainSecond:  "DATE_TRUNC('second', {col})",
	GrainMinute:  "DATE_TRUNC('minute', {col})",
	GrainHour:    "DATE_TRUNC('hour', {col})",
	GrainDay:     "DATE_TRUNC('day', {col})",
	GrainWeek:    "DATE_TRUNC('week', {col})",
	GrainMonth:   "DATE_TRUNC('month', {col})",
	GrainQuarter: "DATE_TRUNC('quarter', {col})",
	GrainYear:    "DATE_TRUNC('year', {col})",
}

func (d *postgresDialect) TimeGrain(name string) string {
	if g, ok := postgresGrains[name]; ok {
		return g
	}
	return IdentityTemplate
}

// ConvertDateTime renders typed literals for DATE and TIMESTAMP columns.
func (d *postgresDialect) ConvertDateTime(columnType string, t time.Time) (string, bool) {
	upper := strings.ToUpper(columnType)
	switch {
	case strings.HasPrefix(upper, "DATE"):
		return fmt.Sprintf("'%s'::date", t.Format("2006-01-02")), true
	case strings.HasPrefix(upper, "TIMESTAMP"):
		return fmt.Sprintf("'%s'::timestamp", t.Format("2006-01-02 15:04:05")), true
	}
	return "", false
}
