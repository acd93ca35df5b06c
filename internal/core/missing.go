package core

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/table"
)

// NumericStrategy is the treatment of missing cells in numeric columns.
type NumericStrategy string

const (
	NumericDropRows   NumericStrategy = "drop_rows"
	NumericLeave      NumericStrategy = "leave"
	NumericFillMean   NumericStrategy = "fill_mean"
	NumericFillMedian NumericStrategy = "fill_median"
	NumericFillMode   NumericStrategy = "fill_mode"
)

// NumericStrategies lists the accepted numeric strategies in display order.
var NumericStrategies = []NumericStrategy{
	NumericDropRows, NumericLeave, NumericFillMean, NumericFillMedian, NumericFillMode,
}

// CategoricalStrategy is the treatment of missing cells in categorical columns.
type CategoricalStrategy string

const (
	CategoricalLeave    CategoricalStrategy = "leave"
	CategoricalDropRows CategoricalStrategy = "drop_rows"
)

// CategoricalStrategies lists the accepted categorical strategies in display order.
var CategoricalStrategies = []CategoricalStrategy{CategoricalLeave, CategoricalDropRows}

// Validate returns ErrUnknownStrategy for values outside the enumeration.
func (s NumericStrategy) Validate() error {
	if !slices.Contains(NumericStrategies, s) {
		return fmt.Errorf("%w: numeric %q", ErrUnknownStrategy, string(s))
	}
	return nil
}

// Validate returns ErrUnknownStrategy for values outside the enumeration.
func (s CategoricalStrategy) Validate() error {
	if !slices.Contains(CategoricalStrategies, s) {
		return fmt.Errorf("%w: categorical %q", ErrUnknownStrategy, string(s))
	}
	return nil
}

// ResolveMissing applies the chosen strategies to the columns named in the
// report and returns the cleaned table. The input is not modified.
//
// Numeric strategies touch only rep.NumericCols and categorical strategies
// only rep.CategoricalCols. Fill statistics and drop decisions are both taken
// from the input table, so the two groups never see each other's effects.
// Report entries that do not name a column of the expected kind are skipped,
// as are columns with no present values.
func ResolveMissing(t *table.Table, rep table.MissingReport, num NumericStrategy, cat CategoricalStrategy) (*table.Table, error) {
	if err := num.Validate(); err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if rep.TotalMissing == 0 {
		return t, nil
	}

	numCols := columnsOfKind(t, rep.NumericCols, table.KindNumeric)
	catCols := columnsOfKind(t, rep.CategoricalCols, table.KindCategorical)

	drop := make([]bool, t.NumRows())
	if num == NumericDropRows {
		markMissingRows(drop, numCols)
	}
	if cat == CategoricalDropRows {
		markMissingRows(drop, catCols)
	}

	out := t
	if fill := fillFunc(num); fill != nil {
		for _, c := range numCols {
			values := c.Floats()
			if len(values) == 0 {
				continue
			}
			filled, err := out.WithColumn(fillColumn(c, fill(values)))
			if err != nil {
				return nil, fmt.Errorf("fill %q: %w", c.Name(), err)
			}
			out = filled
		}
	}

	keep := make([]int, 0, len(drop))
	for i, d := range drop {
		if !d {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(drop) {
		return out, nil
	}
	return out.Take(keep), nil
}

func columnsOfKind(t *table.Table, names []string, kind table.Kind) []*table.Column {
	var cols []*table.Column
	for _, name := range names {
		if c, ok := t.Column(name); ok && c.Kind() == kind {
			cols = append(cols, c)
		}
	}
	return cols
}

func markMissingRows(drop []bool, cols []*table.Column) {
	for _, c := range cols {
		for i := range drop {
			if c.IsNull(i) {
				drop[i] = true
			}
		}
	}
}

func fillFunc(s NumericStrategy) func([]float64) float64 {
	switch s {
	case NumericFillMean:
		return func(v []float64) float64 { return stat.Mean(v, nil) }
	case NumericFillMedian:
		return median
	case NumericFillMode:
		return mode
	default:
		return nil
	}
}

// fillColumn replaces every missing cell of c with v.
func fillColumn(c *table.Column, v float64) *table.Column {
	nums := make([]float64, c.Len())
	for i := range nums {
		if x, ok := c.Float(i); ok {
			nums[i] = x
		} else {
			nums[i] = v
		}
	}
	return table.NewNumeric(c.Name(), nums)
}

// median averages the two middle values for even-length input.
func median(values []float64) float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// mode returns the most frequent value; ties go to the smallest.
func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestN := math.Inf(1), 0
	for v, n := range counts {
		if n > bestN || n == bestN && v < best {
			best, bestN = v, n
		}
	}
	return best
}
