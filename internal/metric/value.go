package metric

import (
	"math"
	"strconv"

	"github.com/JonMunkholm/eda/internal/table"
)

// kind is the runtime type of an evaluated expression.
type kind int

const (
	kindNumber kind = iota
	kindString
	kindBool
	kindNumbers // numeric column; NaN marks a missing cell
	kindBools
	kindStrings // text column; null marks a missing cell
	kindTable
)

func (k kind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindNumbers:
		return "numeric column"
	case kindBools:
		return "boolean column"
	case kindStrings:
		return "text column"
	case kindTable:
		return "table"
	default:
		return "unknown"
	}
}

type value struct {
	kind  kind
	num   float64
	str   string
	b     bool
	nums  []float64
	bools []bool
	strs  []string
	null  []bool
	tbl   *table.Table
}

func number(v float64) value          { return value{kind: kindNumber, num: v} }
func text(s string) value             { return value{kind: kindString, str: s} }
func boolean(b bool) value            { return value{kind: kindBool, b: b} }
func numbers(v []float64) value       { return value{kind: kindNumbers, nums: v} }
func bools(v []bool) value            { return value{kind: kindBools, bools: v} }
func tableValue(t *table.Table) value { return value{kind: kindTable, tbl: t} }

func texts(v []string, null []bool) value {
	return value{kind: kindStrings, strs: v, null: null}
}

func (v value) isColumn() bool {
	return v.kind == kindNumbers || v.kind == kindBools || v.kind == kindStrings
}

func (v value) length() int {
	switch v.kind {
	case kindNumbers:
		return len(v.nums)
	case kindBools:
		return len(v.bools)
	case kindStrings:
		return len(v.strs)
	case kindTable:
		return v.tbl.NumRows()
	default:
		return 1
	}
}

// fromColumn copies a table column into an evaluator value.
func fromColumn(c *table.Column) value {
	n := c.Len()
	if c.IsNumeric() {
		out := make([]float64, n)
		for i := range out {
			out[i], _ = c.Float(i)
		}
		return numbers(out)
	}
	strs := make([]string, n)
	null := make([]bool, n)
	for i := range strs {
		s, ok := c.Str(i)
		strs[i], null[i] = s, !ok
	}
	return texts(strs, null)
}

// column converts a column value to a table column. Infinite numbers become
// missing cells.
func (v value) column(name string) *table.Column {
	switch v.kind {
	case kindNumbers:
		out := make([]float64, len(v.nums))
		for i, x := range v.nums {
			if math.IsInf(x, 0) {
				x = math.NaN()
			}
			out[i] = x
		}
		return table.NewNumeric(name, out)
	case kindBools:
		out := make([]string, len(v.bools))
		for i, b := range v.bools {
			out[i] = strconv.FormatBool(b)
		}
		return table.NewCategorical(name, out, nil)
	case kindStrings:
		return table.NewCategorical(name, v.strs, v.null)
	default:
		return nil
	}
}

// format renders a scalar value.
func (v value) format() string {
	switch v.kind {
	case kindNumber:
		return table.FormatNumber(v.num)
	case kindString:
		return v.str
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.kind.String()
	}
}
