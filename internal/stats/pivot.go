package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/table"
)

// Agg is a pivot aggregation.
type Agg string

const (
	AggSum    Agg = "sum"
	AggMean   Agg = "mean"
	AggCount  Agg = "count"
	AggMin    Agg = "min"
	AggMax    Agg = "max"
	AggMedian Agg = "median"
)

var (
	// ErrInvalidPivot is returned for pivot requests that name unusable columns.
	ErrInvalidPivot = errors.New("invalid pivot request")

	// ErrUnknownAgg is returned for an unsupported aggregation.
	ErrUnknownAgg = errors.New("unknown aggregation")
)

// PivotRequest describes a pivot table. Columns is optional; without it the
// result has a single value column named after Values.
type PivotRequest struct {
	Index   string `json:"index" yaml:"index"`
	Columns string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Values  string `json:"values" yaml:"values"`
	Agg     Agg    `json:"agg" yaml:"agg"`
}

// PivotRow is one index key with its aggregated cells.
type PivotRow struct {
	Key    string        `json:"key" yaml:"key"`
	Values []table.Float `json:"values" yaml:"values"`
}

// PivotTable is the result of Pivot.
type PivotTable struct {
	Index   string     `json:"index" yaml:"index"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    []PivotRow `json:"rows" yaml:"rows"`
}

// Pivot groups the Values column by Index (and Columns, if set) and reduces
// each group with Agg. Rows whose keys or value are missing are skipped.
// Combinations without data are filled with 0. Keys are sorted numerically
// for numeric key columns and lexically otherwise.
func Pivot(t *table.Table, req PivotRequest) (*PivotTable, error) {
	req.Agg = Agg(strings.ToLower(strings.TrimSpace(string(req.Agg))))
	if req.Agg == "" {
		req.Agg = AggMean
	}
	agg, err := aggregator(req.Agg)
	if err != nil {
		return nil, err
	}
	index, ok := t.Column(req.Index)
	if !ok {
		return nil, fmt.Errorf("%w: index column %q not found", ErrInvalidPivot, req.Index)
	}
	values, ok := t.Column(req.Values)
	if !ok {
		return nil, fmt.Errorf("%w: values column %q not found", ErrInvalidPivot, req.Values)
	}
	if !values.IsNumeric() && req.Agg != AggCount {
		return nil, fmt.Errorf("%w: values column %q is not numeric", ErrInvalidPivot, req.Values)
	}
	var across *table.Column
	if req.Columns != "" {
		if across, ok = t.Column(req.Columns); !ok {
			return nil, fmt.Errorf("%w: columns column %q not found", ErrInvalidPivot, req.Columns)
		}
	}

	type cell struct{ row, col string }
	groups := make(map[cell][]float64)
	rowKeys := newKeySet(index)
	colKeys := newKeySet(across)

	for i := 0; i < t.NumRows(); i++ {
		rk, ok := index.Str(i)
		if !ok || values.IsNull(i) {
			continue
		}
		ck := req.Values
		if across != nil {
			if ck, ok = across.Str(i); !ok {
				continue
			}
		}
		v, _ := values.Float(i) // NaN for categorical values, which only count
		groups[cell{rk, ck}] = append(groups[cell{rk, ck}], v)
		rowKeys.add(rk)
		colKeys.add(ck)
	}

	p := &PivotTable{Index: req.Index, Columns: colKeys.sorted(), Rows: []PivotRow{}}
	if across == nil {
		p.Columns = []string{req.Values}
	}
	for _, rk := range rowKeys.sorted() {
		row := PivotRow{Key: rk, Values: make([]table.Float, len(p.Columns))}
		for j, ck := range p.Columns {
			if g, ok := groups[cell{rk, ck}]; ok {
				row.Values[j] = table.Float(agg(g))
			}
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

// Table converts the pivot to a table with the index keys in the first column.
func (p *PivotTable) Table() (*table.Table, error) {
	keys := make([]string, len(p.Rows))
	cols := make([]*table.Column, 0, len(p.Columns)+1)
	for i, r := range p.Rows {
		keys[i] = r.Key
	}
	cols = append(cols, table.NewCategorical(p.Index, keys, nil))
	for j, name := range p.Columns {
		if name == p.Index {
			name += ".1"
		}
		vals := make([]float64, len(p.Rows))
		for i, r := range p.Rows {
			vals[i] = float64(r.Values[j])
		}
		cols = append(cols, table.NewNumeric(name, vals))
	}
	return table.New(cols...)
}

func aggregator(a Agg) (func([]float64) float64, error) {
	switch a {
	case AggSum:
		return floats.Sum, nil
	case AggMean:
		return func(v []float64) float64 { return stat.Mean(v, nil) }, nil
	case AggCount:
		return func(v []float64) float64 { return float64(len(v)) }, nil
	case AggMin:
		return floats.Min, nil
	case AggMax:
		return floats.Max, nil
	case AggMedian:
		return func(v []float64) float64 {
			s := append([]float64(nil), v...)
			sort.Float64s(s)
			return Quantile(s, 0.5)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgg, string(a))
	}
}

// keySet collects group keys and sorts them by the kind of their source column.
type keySet struct {
	numeric bool
	seen    map[string]float64
}

func newKeySet(c *table.Column) *keySet {
	return &keySet{numeric: c != nil && c.IsNumeric(), seen: make(map[string]float64)}
}

func (k *keySet) add(key string) {
	if _, ok := k.seen[key]; ok {
		return
	}
	v := math.NaN()
	if k.numeric {
		v, _ = table.ParseNumber(key)
	}
	k.seen[key] = v
}

func (k *keySet) sorted() []string {
	keys := make([]string, 0, len(k.seen))
	for key := range k.seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if k.numeric {
			return k.seen[keys[i]] < k.seen[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
