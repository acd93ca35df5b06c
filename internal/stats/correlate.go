package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/table"
)

// Method is a correlation coefficient.
type Method string

const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
	Kendall  Method = "kendall"
)

var (
	// ErrTooFewColumns is returned when fewer than two numeric columns exist.
	ErrTooFewColumns = errors.New("correlation needs at least two numeric columns")

	// ErrUnknownMethod is returned for an unsupported correlation method.
	ErrUnknownMethod = errors.New("unknown correlation method")
)

// ParseMethod maps a name to a Method. Empty means Pearson.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Pearson, nil
	case Pearson, Spearman, Kendall:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// CorrMatrix is a symmetric correlation matrix over numeric columns.
type CorrMatrix struct {
	Method  Method          `json:"method" yaml:"method"`
	Columns []string        `json:"columns" yaml:"columns"`
	Values  [][]table.Float `json:"values" yaml:"values"`
}

// At returns the coefficient between columns i and j.
func (m *CorrMatrix) At(i, j int) float64 { return float64(m.Values[i][j]) }

// Correlate computes the pairwise correlation of every numeric column using,
// for each pair, only rows where both values are present. Pairs with fewer
// than two such rows, or with no variance, are NaN.
func Correlate(t *table.Table, method Method) (*CorrMatrix, error) {
	coef, err := coefficient(method)
	if err != nil {
		return nil, err
	}
	cols := SelectNumeric(t, nil)
	if len(cols) < 2 {
		return nil, ErrTooFewColumns
	}

	m := &CorrMatrix{
		Method:  method,
		Columns: make([]string, len(cols)),
		Values:  make([][]table.Float, len(cols)),
	}
	for i, c := range cols {
		m.Columns[i] = c.Name()
		m.Values[i] = make([]table.Float, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			x, y := pairwiseComplete(cols[i], cols[j])
			r := math.NaN()
			if len(x) >= 2 {
				r = coef(x, y)
			}
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = table.Float(r)
			m.Values[j][i] = table.Float(r)
		}
	}
	return m, nil
}

func coefficient(method Method) (func(x, y []float64) float64, error) {
	switch method {
	case Pearson:
		return pearson, nil
	case Spearman:
		return func(x, y []float64) float64 { return pearson(ranks(x), ranks(y)) }, nil
	case Kendall:
		return kendallTauB, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(method))
	}
}

func pearson(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// pairwiseComplete returns the values of a and b at rows where both are present.
func pairwiseComplete(a, b *table.Column) (x, y []float64) {
	for i := 0; i < a.Len(); i++ {
		va, okA := a.Float(i)
		vb, okB := b.Float(i)
		if okA && okB {
			x = append(x, va)
			y = append(y, vb)
		}
	}
	return x, y
}

// ranks assigns 1-based ranks, averaging the ranks of tied values.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, len(values))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && values[idx[end]] == values[idx[start]] {
			end++
		}
		avg := float64(start+end+1) / 2 // mean of ranks start+1 .. end
		for k := start; k < end; k++ {
			out[idx[k]] = avg
		}
		start = end
	}
	return out
}

// kendallTauB computes Kendall's tau-b, which corrects for ties in either variable.
func kendallTauB(x, y []float64) float64 {
	var concordant, discordant, tiesX, tiesY float64
	n := len(x)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := sign(x[i] - x[j])
			dy := sign(y[i] - y[j])
			switch {
			case dx == 0 && dy == 0:
				tiesX++
				tiesY++
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx == dy:
				concordant++
			default:
				discordant++
			}
		}
	}
	pairs := float64(n*(n-1)) / 2
	denom := math.Sqrt((pairs - tiesX) * (pairs - tiesY))
	if denom == 0 {
		return math.NaN()
	}
	return (concordant - discordant) / denom
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
