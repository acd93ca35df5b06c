package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eda/internal/stats"
)

func (a *app) describeCommand() *cobra.Command {
	var cols []string
	cmd := &cobra.Command{
		Use:   "describe <csv>",
		Short: "Print descriptive statistics of numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			res := stats.Describe(t, cols)
			return a.render(cmd.OutOrStdout(), res, func() ([]string, [][]string) {
				header := []string{"column", "count", "missing", "mean", "std", "min", "q1", "median", "q3", "max", "cv%", "skew", "kurt"}
				rows := make([][]string, 0, len(res))
				for _, s := range res {
					rows = append(rows, []string{
						s.Column, strconv.Itoa(s.Count), strconv.Itoa(s.Missing),
						num(s.Mean), num(s.Std), num(s.Min), num(s.Q1), num(s.Median),
						num(s.Q3), num(s.Max), num(s.CV), num(s.Skewness), num(s.Kurtosis),
					})
				}
				return header, rows
			})
		},
	}
	cmd.Flags().StringSliceVar(&cols, "cols", nil, "comma-separated numeric columns (default: all)")
	return cmd
}

func (a *app) outliersCommand() *cobra.Command {
	var cols []string
	cmd := &cobra.Command{
		Use:   "outliers <csv>",
		Short: "List values outside the 1.5·IQR fences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			res := stats.Outliers(t, cols)
			names := make([]string, 0, len(res))
			for name := range res {
				names = append(names, name)
			}
			sort.Strings(names)
			return a.render(cmd.OutOrStdout(), res, func() ([]string, [][]string) {
				header := []string{"column", "lower", "upper", "outliers", "rows"}
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					r := res[name]
					idx := make([]string, len(r.Rows))
					for i, row := range r.Rows {
						idx[i] = strconv.Itoa(row)
					}
					rows = append(rows, []string{
						name, num(r.Lower), num(r.Upper), strconv.Itoa(len(r.Rows)), strings.Join(idx, ","),
					})
				}
				return header, rows
			})
		},
	}
	cmd.Flags().StringSliceVar(&cols, "cols", nil, "comma-separated numeric columns (default: all)")
	return cmd
}

func (a *app) corrCommand() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "corr <csv>",
		Short: "Print the correlation matrix of numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := stats.ParseMethod(method)
			if err != nil {
				return err
			}
			t, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := stats.Correlate(t, m)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, func() ([]string, [][]string) {
				header := append([]string{string(res.Method)}, res.Columns...)
				rows := make([][]string, len(res.Columns))
				for i, name := range res.Columns {
					rows[i] = append(rows[i], name)
					for j := range res.Columns {
						rows[i] = append(rows[i], num(res.Values[i][j]))
					}
				}
				return header, rows
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "pearson", "pearson|spearman|kendall")
	return cmd
}

func (a *app) pivotCommand() *cobra.Command {
	var req stats.PivotRequest
	var agg string
	cmd := &cobra.Command{
		Use:   "pivot <csv>",
		Short: "Aggregate a numeric column by one or two key columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Agg = stats.Agg(agg)
			t, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := stats.Pivot(t, req)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), res, func() ([]string, [][]string) {
				header := append([]string{res.Index}, res.Columns...)
				rows := make([][]string, 0, len(res.Rows))
				for _, r := range res.Rows {
					row := []string{r.Key}
					for _, v := range r.Values {
						row = append(row, num(v))
					}
					rows = append(rows, row)
				}
				return header, rows
			})
		},
	}
	cmd.Flags().StringVar(&req.Index, "index", "", "row key column")
	cmd.Flags().StringVar(&req.Columns, "columns", "", "optional column key column")
	cmd.Flags().StringVar(&req.Values, "values", "", "column to aggregate")
	cmd.Flags().StringVar(&agg, "agg", "mean", "sum|mean|count|min|max|median")
	cmd.MarkFlagRequired("index")
	cmd.MarkFlagRequired("values")
	return cmd
}
