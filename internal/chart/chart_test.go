package chart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eda/internal/table"
)

func sample() *table.Table {
	return table.MustNew(
		table.NewNumeric("x", []float64{1, 2, 3, 4, math.NaN()}),
		table.NewNumeric("y", []float64{3, 5, 7, 9, 11}),
		table.NewCategorical("g", []string{"a", "b", "a", "b", "a"}, nil),
	)
}

func TestHistogram(t *testing.T) {
	fig, err := Histogram(sample(), "x", 10, "")
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, "histogram", fig.Data[0].Type)
	assert.Equal(t, 10, fig.Data[0].NBinsX)
	assert.Len(t, fig.Data[0].X, 5)
	assert.Nil(t, fig.Data[0].X[4], "missing cell should be a gap")
	assert.Equal(t, "Histogram: x", fig.Layout.Title)

	fig, err = Histogram(sample(), "x", 0, "g")
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, "a", fig.Data[0].Name)
	assert.Equal(t, "b", fig.Data[1].Name)
	assert.Len(t, fig.Data[0].X, 3)
}

func TestBox(t *testing.T) {
	fig, err := Box(sample(), nil)
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, "x", fig.Data[0].Name)
	assert.Len(t, fig.Data[0].Y, 4)

	_, err = Box(sample(), []string{"g"})
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestScatter_Trendline(t *testing.T) {
	fig, err := Scatter(sample(), "x", "y", "")
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)

	line := fig.Data[1]
	assert.Equal(t, "lines", line.Mode)
	assert.Equal(t, []any{table.Float(1), table.Float(4)}, line.X)
	assert.InDelta(t, 3, float64(line.Y[0].(table.Float)), 1e-9)
	assert.InDelta(t, 9, float64(line.Y[1].(table.Float)), 1e-9)
}

func TestScatter_Groups(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("x", []float64{1, 2, 3}),
		table.NewNumeric("y", []float64{1, 2, 3}),
		table.NewCategorical("g", []string{"a", "a", "b"}, []bool{false, false, true}),
	)
	fig, err := Scatter(tbl, "x", "y", "g")
	require.NoError(t, err)

	// group a: markers + trendline; missing group has one point so no trendline.
	require.Len(t, fig.Data, 3)
	assert.Equal(t, "a", fig.Data[0].Name)
	assert.Contains(t, fig.Data[1].Name, "a OLS")
	assert.Equal(t, missingGroup, fig.Data[2].Name)
}

func TestFitOLS(t *testing.T) {
	x := table.NewNumeric("x", []float64{0, 1, 2, math.NaN()})
	y := table.NewNumeric("y", []float64{1, 3, 5, 100})
	fit, ok := FitOLS(x, y)
	require.True(t, ok)
	assert.InDelta(t, 1, fit.Intercept, 1e-9)
	assert.InDelta(t, 2, fit.Slope, 1e-9)
	assert.InDelta(t, 1, fit.RSquared, 1e-9)

	_, ok = FitOLS(table.NewNumeric("c", []float64{1, 1}), table.NewNumeric("d", []float64{1, 2}))
	assert.False(t, ok, "constant x has no fit")
}

func TestLine(t *testing.T) {
	fig, err := Line(sample(), "g", "y")
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{"a", "b", "a", "b", "a"}, fig.Data[0].X)

	_, err = Line(sample(), "x", "g")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestBar(t *testing.T) {
	fig, err := Bar(sample(), "g", "")
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{"a", "b"}, fig.Data[0].X)
	assert.Equal(t, []any{3, 2}, fig.Data[0].Y)
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		traces  int
		wantErr error
	}{
		{"histogram", Request{Kind: KindHistogram, X: "x"}, 1, nil},
		{"box single y", Request{Kind: KindBox, Y: "y"}, 1, nil},
		{"scatter", Request{Kind: "Scatter", X: "x", Y: "y"}, 2, nil},
		{"line", Request{Kind: KindLine, X: "x", Y: "y"}, 1, nil},
		{"bar by color", Request{Kind: KindBar, X: "g", Color: "g"}, 2, nil},
		{"unknown kind", Request{Kind: "pie", X: "x"}, 0, ErrUnknownKind},
		{"unknown column", Request{Kind: KindHistogram, X: "nope"}, 0, ErrUnknownColumn},
		{"unknown color", Request{Kind: KindBar, X: "g", Color: "nope"}, 0, ErrUnknownColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := Build(sample(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, fig.Data, tt.traces)
		})
	}
}

func TestBuild_TitleOverride(t *testing.T) {
	fig, err := Build(sample(), Request{Kind: KindBar, X: "g", Title: "Groups"})
	require.NoError(t, err)
	assert.Equal(t, "Groups", fig.Layout.Title)
}

func TestFigure_JSON(t *testing.T) {
	fig, err := Histogram(sample(), "x", 0, "")
	require.NoError(t, err)
	b, err := json.Marshal(fig)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"x":[1,2,3,4,null]`)
	assert.NotContains(t, string(b), "nbinsx")
}
