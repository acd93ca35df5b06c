// Package stats computes descriptive statistics, IQR outliers, correlation
// matrices and pivot tables over table snapshots.
//
// Every function is read-only over its input and works on the non-missing
// values of each column. Results that are undefined for the data at hand
// (the standard deviation of one value, the CV of a zero-mean column) are NaN,
// which encodes as JSON null.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/table"
)

// ColumnStats is the extended summary of one numeric column.
type ColumnStats struct {
	Column   string      `json:"column" yaml:"column"`
	Count    int         `json:"count" yaml:"count"`
	Missing  int         `json:"missing" yaml:"missing"`
	Mean     table.Float `json:"mean" yaml:"mean"`
	Median   table.Float `json:"median" yaml:"median"`
	Min      table.Float `json:"min" yaml:"min"`
	Max      table.Float `json:"max" yaml:"max"`
	Std      table.Float `json:"std" yaml:"std"`
	CV       table.Float `json:"cv_percent" yaml:"cv_percent"`
	Q1       table.Float `json:"q1" yaml:"q1"`
	Q3       table.Float `json:"q3" yaml:"q3"`
	Skewness table.Float `json:"skewness" yaml:"skewness"`
	Kurtosis table.Float `json:"kurtosis" yaml:"kurtosis"`
}

// SelectNumeric resolves a column selection. A nil or empty selection means
// every numeric column; otherwise unknown and non-numeric names are dropped.
func SelectNumeric(t *table.Table, cols []string) []*table.Column {
	if len(cols) == 0 {
		cols = t.NumericColumns()
	}
	var out []*table.Column
	for _, name := range cols {
		if c, ok := t.Column(name); ok && c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// Describe summarizes the selected numeric columns in table order of the selection.
func Describe(t *table.Table, cols []string) []ColumnStats {
	selected := SelectNumeric(t, cols)
	out := make([]ColumnStats, 0, len(selected))
	for _, c := range selected {
		out = append(out, describeColumn(c))
	}
	return out
}

func describeColumn(c *table.Column) ColumnStats {
	values := c.Floats()
	s := ColumnStats{
		Column:  c.Name(),
		Count:   len(values),
		Missing: c.NullCount(),
	}
	nan := table.Float(math.NaN())
	if len(values) == 0 {
		s.Mean, s.Median, s.Min, s.Max, s.Std, s.CV = nan, nan, nan, nan, nan, nan
		s.Q1, s.Q3, s.Skewness, s.Kurtosis = nan, nan, nan, nan
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean := stat.Mean(values, nil)
	std := stat.StdDev(values, nil)
	s.Mean = table.Float(mean)
	s.Median = table.Float(Quantile(sorted, 0.5))
	s.Min = table.Float(floats.Min(values))
	s.Max = table.Float(floats.Max(values))
	s.Std = table.Float(std)
	s.CV = nan
	if mean != 0 {
		s.CV = table.Float(std / mean * 100)
	}
	s.Q1 = table.Float(Quantile(sorted, 0.25))
	s.Q3 = table.Float(Quantile(sorted, 0.75))
	s.Skewness, s.Kurtosis = shape(values, mean)
	return s
}

// Quantile returns the p-quantile of sorted data using linear interpolation
// between closest ranks. sorted must be ascending and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// shape returns the biased sample skewness and excess kurtosis.
// Both are NaN for constant data.
func shape(values []float64, mean float64) (skew, kurt table.Float) {
	var m2, m3, m4 float64
	for _, v := range values {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(values))
	m2, m3, m4 = m2/n, m3/n, m4/n
	if m2 == 0 {
		return table.Float(math.NaN()), table.Float(math.NaN())
	}
	return table.Float(m3 / math.Pow(m2, 1.5)), table.Float(m4/(m2*m2) - 3)
}
