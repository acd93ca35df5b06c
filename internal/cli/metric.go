package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eda/internal/metric"
)

func (a *app) metricCommand() *cobra.Command {
	var expr, file, output string
	cmd := &cobra.Command{
		Use:   "metric <csv>",
		Short: "Evaluate a custom metric program against the dataset",
		Long: `metric runs a small program with the dataset bound to df. The program
must assign its answer to result, for example:

  result = mean(df['price']) / max(df['qty'])`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := metricSource(expr, file)
			if err != nil {
				return err
			}
			t, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}

			ev := metric.NewEvaluator(metric.Limits{
				MaxSource:     a.settings.MetricMaxSource,
				MaxStatements: a.settings.MetricMaxStatements,
			})
			res, err := ev.Evaluate(cmd.Context(), t, src)
			if err != nil {
				return err
			}
			a.logger.Debug("metric evaluated", "kind", res.Kind)

			if output != "" {
				data, _, _ := metric.Export(res)
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ wrote %s\n", output)
				return nil
			}
			return a.render(cmd.OutOrStdout(), res, func() ([]string, [][]string) {
				if res.Kind != metric.ResultColumn {
					return []string{"result"}, [][]string{{res.String()}}
				}
				rows := make([][]string, len(res.Values))
				for i, v := range res.Values {
					if v == nil {
						rows[i] = []string{"NA"}
						continue
					}
					rows[i] = []string{fmt.Sprint(v)}
				}
				return []string{res.Column.Name()}, rows
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "metric program")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the metric program from a file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("expr", "file")
	return cmd
}

func metricSource(expr, file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		expr = string(b)
	}
	if strings.TrimSpace(expr) == "" {
		return "", errors.New("a metric program is required (--expr or --file)")
	}
	return expr, nil
}
