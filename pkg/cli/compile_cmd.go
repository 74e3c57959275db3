package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyndhblb/caravel/internal/declarative"
	"github.com/wyndhblb/caravel/internal/service"
	"github.com/wyndhblb/caravel/internal/template"
)

func newCompileCmd() *cobra.Command {
	var datasetPath string
	var queryPaths []string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile query descriptions to SQL without executing them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := declarative.LoadDataset(datasetPath)
			if err != nil {
				return err
			}
			svc := service.NewQueryService(template.NewTextExpander(), nil, nil)
			for _, path := range queryPaths {
				q, err := declarative.LoadQuery(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				compiled, err := svc.Compile(ds, q)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), compiled.SQL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset YAML file")
	cmd.Flags().StringSliceVar(&queryPaths, "query", nil, "Path to a query YAML file (repeatable)")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
