// Package service orchestrates query compilation and execution.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wyndhblb/caravel/internal/dialect"
	"github.com/wyndhblb/caravel/internal/domain"
	"github.com/wyndhblb/caravel/internal/executor"
	"github.com/wyndhblb/caravel/internal/sqlgen"
	"github.com/wyndhblb/caravel/internal/template"
)

// DefaultValuesLimit caps column-value previews when no limit is given.
const DefaultValuesLimit = 500

// QueryService compiles query descriptions and runs them through the
// executor. Compilation errors abort before any SQL is executed;
// execution errors surface only through the QueryResult.
type QueryService struct {
	builder *sqlgen.Builder
	runner  *executor.Runner
	logger  *slog.Logger
}

// NewQueryService creates a QueryService. The runner may be nil for
// compile-only use.
func NewQueryService(exp template.Expander, runner *executor.Runner, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		builder: sqlgen.NewBuilder(exp),
		runner:  runner,
		logger:  logger,
	}
}

// Compile compiles the description without executing it.
func (s *QueryService) Compile(ds *domain.Dataset, q *domain.QueryDescription) (*domain.CompiledQuery, error) {
	compiled, err := s.builder.Build(ds, q)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("compiled query", "dataset", ds.Name, "sql", compiled.SQL)
	return compiled, nil
}

// Query compiles and executes the description. The reported duration is
// measured from just before compilation.
func (s *QueryService) Query(ctx context.Context, ds *domain.Dataset, q *domain.QueryDescription) (*domain.QueryResult, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("no executor configured")
	}
	started := time.Now()
	compiled, err := s.Compile(ds, q)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, compiled, started), nil
}

// ValuesForColumn returns up to limit distinct values of one column,
// restricted to the time range over the dataset's main time column when
// one is configured. It backs filter-select suggestions.
func (s *QueryService) ValuesForColumn(ctx context.Context, ds *domain.Dataset, column string, from, to time.Time, limit int) (*domain.QueryResult, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("no executor configured")
	}
	started := time.Now()
	compiled, err := s.CompileValuesForColumn(ds, column, from, to, limit)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, compiled, started), nil
}

// CompileValuesForColumn builds the distinct-values preview statement.
func (s *QueryService) CompileValuesForColumn(ds *domain.Dataset, column string, from, to time.Time, limit int) (*domain.CompiledQuery, error) {
	col := ds.Column(column)
	if col == nil {
		return nil, domain.ErrValidation("column %q is not a known column", column)
	}
	if limit <= 0 {
		limit = DefaultValuesLimit
	}
	d := dialect.Get(ds.Dialect)

	source := d.QuoteIdentifier(ds.Name)
	if ds.Schema != "" {
		source = d.QuoteIdentifier(ds.Schema) + "." + source
	}
	target := sqlgen.ColumnExpr(col, d)
	sql := "SELECT DISTINCT " + target.Expr + " AS " + d.QuoteIdentifier(target.Alias) +
		" FROM " + source
	if ds.MainTimeColumn != "" && !from.IsZero() && !to.IsZero() {
		dttmCol := ds.Column(ds.MainTimeColumn)
		sql += " WHERE " + sqlgen.TimeFilter(dttmCol, from, to, d)
	}
	sql += " LIMIT " + strconv.Itoa(limit)

	return &domain.CompiledQuery{
		SQL:     sqlgen.Reindent(sql),
		Dialect: d.Name(),
		From:    from,
		To:      to,
	}, nil
}
