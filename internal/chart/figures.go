package chart

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/table"
)

// Histogram bins column x, one overlaid trace per color group.
// bins <= 0 lets the renderer choose.
func Histogram(t *table.Table, x string, bins int, color string) (*Figure, error) {
	xc, err := column(t, x)
	if err != nil {
		return nil, err
	}
	groups, err := groupRows(t, color)
	if err != nil {
		return nil, err
	}

	fig := &Figure{Layout: Layout{
		Title:      "Histogram: " + x,
		XAxis:      Axis{Title: x},
		YAxis:      Axis{Title: "count"},
		ShowLegend: true,
		BarMode:    "overlay",
	}}
	for _, g := range groups {
		fig.Data = append(fig.Data, Trace{
			Type:   "histogram",
			Name:   g.name,
			X:      cells(xc, g.rows),
			NBinsX: max(bins, 0),
		})
	}
	return fig, nil
}

// Box draws one box per numeric column in ys. An empty ys means every
// numeric column.
func Box(t *table.Table, ys []string) (*Figure, error) {
	if len(ys) == 0 {
		ys = t.NumericColumns()
	}
	fig := &Figure{Layout: Layout{Title: "Box plot", YAxis: Axis{Title: "value"}, ShowLegend: true}}
	for _, y := range ys {
		c, err := numericColumn(t, y)
		if err != nil {
			return nil, err
		}
		fig.Data = append(fig.Data, Trace{
			Type: "box",
			Name: y,
			Y:    toAny(c.Floats()),
		})
	}
	return fig, nil
}

// Scatter plots y against x per color group, each with an ordinary least
// squares trendline when the group has at least two points with distinct x.
func Scatter(t *table.Table, x, y, color string) (*Figure, error) {
	xc, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	groups, err := groupRows(t, color)
	if err != nil {
		return nil, err
	}

	fig := &Figure{Layout: Layout{
		Title:      fmt.Sprintf("Scatter: %s vs %s", x, y),
		XAxis:      Axis{Title: x},
		YAxis:      Axis{Title: y},
		ShowLegend: true,
	}}
	for _, g := range groups {
		fig.Data = append(fig.Data, Trace{
			Type: "scatter",
			Mode: "markers",
			Name: g.name,
			X:    cells(xc, g.rows),
			Y:    cells(yc, g.rows),
		})
		if tr, ok := trendline(xc, yc, g); ok {
			fig.Data = append(fig.Data, tr)
		}
	}
	return fig, nil
}

// Trendline is the fitted line y = Intercept + Slope·x.
type Trendline struct {
	Intercept float64
	Slope     float64
	RSquared  float64
}

// FitOLS fits y on x by ordinary least squares using only rows where both
// are present. ok is false when fewer than two such rows exist or x is constant.
func FitOLS(xc, yc *table.Column) (fit Trendline, ok bool) {
	rows := make([]int, xc.Len())
	for i := range rows {
		rows[i] = i
	}
	xs, ys := completePairs(xc, yc, rows)
	return fitOLS(xs, ys)
}

func fitOLS(xs, ys []float64) (Trendline, bool) {
	if len(xs) < 2 || floats.Min(xs) == floats.Max(xs) {
		return Trendline{}, false
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	return Trendline{Intercept: alpha, Slope: beta, RSquared: r2}, true
}

func trendline(xc, yc *table.Column, g group) (Trace, bool) {
	xs, ys := completePairs(xc, yc, g.rows)
	fit, ok := fitOLS(xs, ys)
	if !ok {
		return Trace{}, false
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	name := "OLS"
	if g.name != "" {
		name = g.name + " OLS"
	}
	return Trace{
		Type: "scatter",
		Mode: "lines",
		Name: fmt.Sprintf("%s (R²=%.3f)", name, fit.RSquared),
		X:    []any{table.Float(lo), table.Float(hi)},
		Y:    []any{table.Float(fit.Intercept + fit.Slope*lo), table.Float(fit.Intercept + fit.Slope*hi)},
	}, true
}

func completePairs(xc, yc *table.Column, rows []int) (xs, ys []float64) {
	for _, i := range rows {
		xv, okX := xc.Float(i)
		yv, okY := yc.Float(i)
		if okX && okY {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	return xs, ys
}

// Line connects the y values in row order against x. y must be numeric.
func Line(t *table.Table, x, y string) (*Figure, error) {
	xc, err := column(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	rows, _ := groupRows(t, "")
	return &Figure{
		Data: []Trace{{
			Type: "scatter",
			Mode: "lines",
			Name: y,
			X:    cells(xc, rows[0].rows),
			Y:    cells(yc, rows[0].rows),
		}},
		Layout: Layout{
			Title:      fmt.Sprintf("Line: %s vs %s", x, y),
			XAxis:      Axis{Title: x},
			YAxis:      Axis{Title: y},
			ShowLegend: true,
		},
	}, nil
}

// Bar counts the values of x, stacked by color group. Categories appear in
// order of first appearance; missing x values are not counted.
func Bar(t *table.Table, x, color string) (*Figure, error) {
	xc, err := column(t, x)
	if err != nil {
		return nil, err
	}
	groups, err := groupRows(t, color)
	if err != nil {
		return nil, err
	}

	var categories []string
	seen := map[string]bool{}
	for i := 0; i < xc.Len(); i++ {
		if s, ok := xc.Str(i); ok && !seen[s] {
			seen[s] = true
			categories = append(categories, s)
		}
	}

	fig := &Figure{Layout: Layout{
		Title:      "Bar: " + x,
		XAxis:      Axis{Title: x},
		YAxis:      Axis{Title: "count"},
		ShowLegend: true,
		BarMode:    "stack",
	}}
	for _, g := range groups {
		counts := make(map[string]int, len(categories))
		for _, i := range g.rows {
			if s, ok := xc.Str(i); ok {
				counts[s]++
			}
		}
		tr := Trace{Type: "bar", Name: g.name}
		for _, cat := range categories {
			tr.X = append(tr.X, cat)
			tr.Y = append(tr.Y, counts[cat])
		}
		fig.Data = append(fig.Data, tr)
	}
	return fig, nil
}

func toAny(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = table.Float(v)
	}
	return out
}
