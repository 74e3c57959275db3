// Package executor runs compiled SQL against a caller-supplied database
// handle and reports the outcome as a QueryResult. Execution failures are
// captured here, never propagated: the result record is the sole
// success/failure channel.
package executor

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wyndhblb/caravel/internal/domain"
)

// Runner executes compiled queries. It does not pool or manage
// connections, retry, or cancel; the caller owns the handle's lifecycle
// and wires cancellation through ctx.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunner creates a Runner over the given handle.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, logger: logger}
}

// Run executes the compiled SQL once. The started instant should be taken
// just before compilation so the reported duration covers compile plus
// execute, matching what the caller experienced.
func (r *Runner) Run(ctx context.Context, compiled *domain.CompiledQuery, started time.Time) *domain.QueryResult {
	result := &domain.QueryResult{
		QueryID: uuid.NewString(),
		Status:  domain.StatusSuccess,
		Query:   compiled.SQL,
	}
	r.logger.Debug("executing query", "query_id", result.QueryID, "sql", compiled.SQL)

	rows, err := r.db.QueryContext(ctx, compiled.SQL)
	if err != nil {
		return r.fail(result, started, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return r.fail(result, started, err)
	}
	result.Columns = cols

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return r.fail(result, started, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return r.fail(result, started, err)
	}

	result.Duration = time.Since(started)
	r.logger.Info("query finished",
		"query_id", result.QueryID, "rows", len(result.Rows), "duration", result.Duration)
	return result
}

// fail converts an execution error into a failed result. The error text is
// captured; rows stay empty.
func (r *Runner) fail(result *domain.QueryResult, started time.Time, err error) *domain.QueryResult {
	result.Status = domain.StatusFailed
	result.ErrorMessage = err.Error()
	result.Rows = nil
	result.Duration = time.Since(started)
	r.logger.Error("query failed", "query_id", result.QueryID, "error", err)
	return result
}
