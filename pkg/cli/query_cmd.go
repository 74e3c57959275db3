package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	// Database drivers available to --driver.
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wyndhblb/caravel/internal/config"
	"github.com/wyndhblb/caravel/internal/declarative"
	"github.com/wyndhblb/caravel/internal/domain"
	"github.com/wyndhblb/caravel/internal/executor"
	"github.com/wyndhblb/caravel/internal/service"
	"github.com/wyndhblb/caravel/internal/template"
)

func newQueryCmd() *cobra.Command {
	var datasetPath string
	var queryPaths []string
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Compile and execute query descriptions",
		Long: "Compiles each query description against the dataset and executes it. " +
			"Compilation is pure, so multiple query files run concurrently.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadFromEnv()
			if driver == "" {
				driver = cfg.Driver
			}
			if dsn == "" {
				dsn = cfg.DSN
			}

			ds, err := declarative.LoadDataset(datasetPath)
			if err != nil {
				return err
			}
			db, err := sql.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			svc := service.NewQueryService(template.NewTextExpander(), executor.NewRunner(db, nil), nil)

			results := make([]*domain.QueryResult, len(queryPaths))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, path := range queryPaths {
				g.Go(func() error {
					q, err := declarative.LoadQuery(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if q.RowLimit == 0 {
						q.RowLimit = cfg.RowLimit
					}
					res, err := svc.Query(ctx, ds, q)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := false
			for i, res := range results {
				if err := printResult(cmd, getOutputFormat(cmd), queryPaths[i], res); err != nil {
					return err
				}
				if res.Status == domain.StatusFailed {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more queries failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset YAML file")
	cmd.Flags().StringSliceVar(&queryPaths, "query", nil, "Path to a query YAML file (repeatable)")
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: duckdb or sqlite3 (default from CARAVEL_DB_DRIVER)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Data source name (default from CARAVEL_DB_DSN)")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
