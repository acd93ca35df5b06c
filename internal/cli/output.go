package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/eda/internal/table"
)

// render writes v in the configured format. For the table format, rows
// produces the header and the cells.
func (a *app) render(w io.Writer, v any, rows func() ([]string, [][]string)) error {
	switch a.settings.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		header, cells := rows()
		return writeTable(w, header, cells)
	}
}

// writeTable prints aligned columns.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// num formats a statistic to four decimals; NaN prints as NA.
func num(f table.Float) string {
	v := float64(f)
	if math.IsNaN(v) {
		return "NA"
	}
	if math.Abs(v) < 1e15 {
		v = math.Round(v*1e4) / 1e4
	}
	return table.FormatNumber(v)
}
