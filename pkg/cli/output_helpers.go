package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wyndhblb/caravel/internal/domain"
)

// getOutputFormat returns the effective output format from the root
// command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

// parseRange parses optional from/to bounds shared by commands.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	parse := func(s string) (time.Time, error) {
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse time %q", s)
	}
	if fromStr != "" {
		if from, err = parse(fromStr); err != nil {
			return from, to, err
		}
	}
	if toStr != "" {
		if to, err = parse(toStr); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

// printResult writes one query result as a table or JSON.
func printResult(cmd *cobra.Command, format, label string, res *domain.QueryResult) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"label":    label,
			"query_id": res.QueryID,
			"status":   res.Status,
			"columns":  res.Columns,
			"rows":     res.Rows,
			"duration": res.Duration.String(),
			"query":    res.Query,
			"error":    res.ErrorMessage,
		})
	}

	if res.Status == domain.StatusFailed {
		fmt.Fprintf(out, "%s: FAILED: %s\n", label, res.ErrorMessage)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range res.Columns {
		fmt.Fprintf(w, "%s\t", c)
	}
	fmt.Fprintln(w)
	for _, row := range res.Rows {
		for _, v := range row {
			fmt.Fprintf(w, "%v\t", v)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "(%d rows in %s)\n", len(res.Rows), res.Duration)
	return nil
}
