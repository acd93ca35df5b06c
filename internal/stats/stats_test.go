package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eda/internal/table"
)

func TestDescribe(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("x", []float64{1, 2, math.NaN(), 3, 4}),
		table.NewCategorical("label", []string{"a", "b", "c", "d", "e"}, nil),
	)

	got := Describe(tbl, nil)
	require.Len(t, got, 1)
	s := got[0]

	assert.Equal(t, "x", s.Column)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Missing)
	assert.InDelta(t, 2.5, float64(s.Mean), 1e-12)
	assert.InDelta(t, 2.5, float64(s.Median), 1e-12)
	assert.InDelta(t, 1, float64(s.Min), 1e-12)
	assert.InDelta(t, 4, float64(s.Max), 1e-12)
	assert.InDelta(t, 1.2909944487, float64(s.Std), 1e-9)
	assert.InDelta(t, 51.6397779, float64(s.CV), 1e-6)
	assert.InDelta(t, 1.75, float64(s.Q1), 1e-12)
	assert.InDelta(t, 3.25, float64(s.Q3), 1e-12)
	assert.InDelta(t, 0, float64(s.Skewness), 1e-12)
	assert.InDelta(t, -1.36, float64(s.Kurtosis), 1e-9)
}

func TestDescribe_EdgeCases(t *testing.T) {
	zero := Describe(table.MustNew(table.NewNumeric("z", []float64{-1, 1})), nil)[0]
	assert.True(t, math.IsNaN(float64(zero.CV)), "CV with zero mean should be NaN")

	single := Describe(table.MustNew(table.NewNumeric("s", []float64{5})), nil)[0]
	assert.True(t, math.IsNaN(float64(single.Std)), "std of one value should be NaN")
	assert.True(t, math.IsNaN(float64(single.Skewness)), "skew of constant data should be NaN")

	empty := Describe(table.MustNew(table.NewNumeric("e", []float64{math.NaN()})), nil)[0]
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(float64(empty.Mean)))
}

func TestDescribe_Selection(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("a", []float64{1, 2}),
		table.NewNumeric("b", []float64{3, 4}),
		table.NewCategorical("c", []string{"x", "y"}, nil),
	)
	got := Describe(tbl, []string{"b", "c", "nope"})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Column)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 100}
	assert.Equal(t, 2.0, Quantile(sorted, 0.25))
	assert.Equal(t, 4.0, Quantile(sorted, 0.75))
	assert.Equal(t, 100.0, Quantile(sorted, 1))
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestOutliers(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("v", []float64{1, 2, 3, 4, 100, math.NaN()}),
		table.NewNumeric("flat", []float64{1, 1, 1, 1, 1, 1}),
	)
	got := Outliers(tbl, nil)

	v := got["v"]
	assert.Equal(t, []int{4}, v.Rows)
	assert.Equal(t, []table.Float{100}, v.Values)
	assert.InDelta(t, -1, float64(v.Lower), 1e-12)
	assert.InDelta(t, 7, float64(v.Upper), 1e-12)

	assert.Empty(t, got["flat"].Rows)
}

func TestCorrelate(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("x", []float64{1, 2, 3, 4}),
		table.NewNumeric("up", []float64{2, 4, 6, 8}),
		table.NewNumeric("down", []float64{4, 3, 2, 1}),
		table.NewCategorical("label", []string{"a", "b", "c", "d"}, nil),
	)

	for _, method := range []Method{Pearson, Spearman, Kendall} {
		t.Run(string(method), func(t *testing.T) {
			m, err := Correlate(tbl, method)
			require.NoError(t, err)
			assert.Equal(t, []string{"x", "up", "down"}, m.Columns)
			assert.InDelta(t, 1, m.At(0, 1), 1e-12)
			assert.InDelta(t, -1, m.At(0, 2), 1e-12)
			assert.Equal(t, m.At(1, 2), m.At(2, 1))
			assert.Equal(t, 1.0, m.At(0, 0))
		})
	}
}

func TestCorrelate_TiesAndMissing(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("x", []float64{1, 2, 2, 3, math.NaN()}),
		table.NewNumeric("y", []float64{1, 2, 3, 3, 10}),
	)

	k, err := Correlate(tbl, Kendall)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, k.At(0, 1), 1e-12)

	s, err := Correlate(tbl, Spearman)
	require.NoError(t, err)
	// ranks x = [1 2.5 2.5 4], y = [1 2 3.5 3.5]
	assert.InDelta(t, 5.0/6, s.At(0, 1), 1e-12)
}

func TestCorrelate_Errors(t *testing.T) {
	one := table.MustNew(table.NewNumeric("x", []float64{1, 2}))
	_, err := Correlate(one, Pearson)
	assert.ErrorIs(t, err, ErrTooFewColumns)

	_, err = ParseMethod("cosine")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	m, err := ParseMethod(" Spearman ")
	require.NoError(t, err)
	assert.Equal(t, Spearman, m)
}

func TestRanks(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{1, 2, 2, 3}))
	assert.Equal(t, []float64{3, 1, 2}, ranks([]float64{30, 10, 20}))
}

func TestPivot(t *testing.T) {
	tbl := table.MustNew(
		table.NewCategorical("region", []string{"b", "a", "a", "b", "b"}, nil),
		table.NewCategorical("product", []string{"x", "x", "y", "x", "y"}, nil),
		table.NewNumeric("sales", []float64{3, 1, 2, 4, math.NaN()}),
	)

	p, err := Pivot(tbl, PivotRequest{Index: "region", Columns: "product", Values: "sales", Agg: AggSum})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, p.Columns)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, PivotRow{Key: "a", Values: []table.Float{1, 2}}, p.Rows[0])
	assert.Equal(t, PivotRow{Key: "b", Values: []table.Float{7, 0}}, p.Rows[1])

	out, err := p.Table()
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "x", "y"}, out.ColumnNames())
	assert.Equal(t, []string{"b", "7", "0"}, out.Row(1))
}

func TestPivot_Aggregations(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("g", []float64{2, 1, 1, 1}),
		table.NewNumeric("v", []float64{10, 1, 2, 6}),
	)
	tests := []struct {
		agg  Agg
		want []table.Float // keys sorted numerically: 1, 2
	}{
		{AggSum, []table.Float{9, 10}},
		{AggMean, []table.Float{3, 10}},
		{AggCount, []table.Float{3, 1}},
		{AggMin, []table.Float{1, 10}},
		{AggMax, []table.Float{6, 10}},
		{AggMedian, []table.Float{2, 10}},
		{"", []table.Float{3, 10}},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			p, err := Pivot(tbl, PivotRequest{Index: "g", Values: "v", Agg: tt.agg})
			require.NoError(t, err)
			assert.Equal(t, []string{"v"}, p.Columns)
			got := []table.Float{p.Rows[0].Values[0], p.Rows[1].Values[0]}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "1", p.Rows[0].Key)
		})
	}
}

func TestPivot_Errors(t *testing.T) {
	tbl := table.MustNew(
		table.NewCategorical("k", []string{"a"}, nil),
		table.NewCategorical("s", []string{"x"}, nil),
	)
	_, err := Pivot(tbl, PivotRequest{Index: "nope", Values: "s", Agg: AggCount})
	assert.ErrorIs(t, err, ErrInvalidPivot)

	_, err = Pivot(tbl, PivotRequest{Index: "k", Values: "s", Agg: AggSum})
	assert.ErrorIs(t, err, ErrInvalidPivot)

	_, err = Pivot(tbl, PivotRequest{Index: "k", Values: "s", Agg: "mode"})
	assert.ErrorIs(t, err, ErrUnknownAgg)

	p, err := Pivot(tbl, PivotRequest{Index: "k", Values: "s", Agg: AggCount})
	require.NoError(t, err)
	assert.Equal(t, table.Float(1), p.Rows[0].Values[0])
}
