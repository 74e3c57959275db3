package dialect

import (
	"fmt"
	"strings"
	"time"
)

type mysqlDialect struct{}

func (d *mysqlDialect) Name() string { return "mysql" }

func (d *mysqlDialect) QuoteIdentifier(s string) string {
	if plainIdentifier(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func (d *mysqlDialect) EpochToTimestamp() string { return "from_unixtime({col})" }

func (d *mysqlDialect) EpochMillisToTimestamp() string {
	return "from_unixtime({col} / 1000)"
}

var mysqlGrains = map[string]string{
	GrainSecond:  "DATE_ADD(DATE({col}), INTERVAL TIME_TO_SEC({col}) SECOND)",
	GrainMinute:  "DATE_ADD(DATE({col}), INTERVAL (HOUR({col})*60 + MINUTE({col})) MINUTE)",
	GrainHour:    "DATE_ADD(DATE({col}), INTERVAL HOUR({col}) HOUR)",
	GrainDay:     "DATE({col})",
	GrainWeek:    "DATE(DATE_SUB({col}, INTERVAL DAYOFWEEK({col}) - 1 DAY))",
	GrainMonth:   "DATE(DATE_SUB({col}, INTERVAL DAYOFMONTH({col}) - 1 DAY))",
	GrainQuarter: "MAKEDATE(YEAR({col}), 1) + INTERVAL QUARTER({col}) QUARTER - INTERVAL 1 QUARTER",
	GrainYear:    "DATE(DATE_SUB({col}, INTERVAL DAYOFYEAR({col}) - 1 DAY))",
}

func (d *mysqlDialect) TimeGrain(name string) string {
	if g, ok := mysqlGrains[name]; ok {
		return g
	}
	return IdentityTemplate
}

// ConvertDateTime renders DATE and DATETIME literals through STR_TO_DATE.
func (d *mysqlDialect) ConvertDateTime(columnType string, t time.Time) (string, bool) {
	upper := strings.ToUpper(columnType)
	switch {
	case strings.HasPrefix(upper, "DATETIME") || strings.HasPrefix(upper, "TIMESTAMP"):
		return fmt.Sprintf("STR_TO_DATE('%s', '%%Y-%%m-%%d %%H:%%i:%%s')",
			t.Format("2006-01-02 15:04:05")), true
	case strings.HasPrefix(upper, "DATE"):
		return fmt.Sprintf("STR_TO_DATE('%s', '%%Y-%%m-%%d')", t.Format("2006-01-02")), true
	}
	return "", false
}
