package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyndhblb/caravel/internal/config"
	"github.com/wyndhblb/caravel/internal/declarative"
	"github.com/wyndhblb/caravel/internal/executor"
	"github.com/wyndhblb/caravel/internal/service"
	"github.com/wyndhblb/caravel/internal/template"
)

func newValuesCmd() *cobra.Command {
	var datasetPath, column, fromStr, toStr string
	var limit int
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "values",
		Short: "List distinct values of a dataset column",
		Long:  "Runs a distinct-values preview for one column, for filter suggestions.",
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
			from, to, err := parseRange(fromStr, toStr)
			if err != nil {
				return err
			}

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			svc := service.NewQueryService(template.NewTextExpander(), executor.NewRunner(db, nil), nil)
			res, err := svc.ValuesForColumn(cmd.Context(), ds, column, from, to, limit)
			if err != nil {
				return err
			}
			return printResult(cmd, getOutputFormat(cmd), column, res)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset YAML file")
	cmd.Flags().StringVar(&column, "column", "", "Column to list values for")
	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of values (default 500)")
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: duckdb or sqlite3")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Data source name")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}
