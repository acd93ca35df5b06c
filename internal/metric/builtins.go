package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/eda/internal/stats"
	"github.com/JonMunkholm/eda/internal/table"
)

type builtin func(args []value) (value, error)

// builtins is the complete set of callable functions.
var builtins = map[string]builtin{
	"len":    builtinLen,
	"count":  builtinCount,
	"sum":    reducer(floats.Sum),
	"mean":   reducer(func(v []float64) float64 { return stat.Mean(v, nil) }),
	"median": reducer(median),
	"min":    extreme(floats.Min, math.Min),
	"max":    extreme(floats.Max, math.Max),
	"std":    reducer(func(v []float64) float64 { return stat.StdDev(v, nil) }),
	"abs":    elementwise(math.Abs),
	"sqrt":   elementwise(math.Sqrt),
	"log":    elementwise(math.Log),
	"round":  builtinRound,
	"int":    converter(math.Trunc),
	"float":  converter(func(v float64) float64 { return v }),
	"str":    builtinStr,
}

func arity(args []value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("expects %d argument(s), got %d", lo, len(args))
		}
		return fmt.Errorf("expects %d to %d arguments, got %d", lo, hi, len(args))
	}
	return nil
}

// present returns the non-missing numbers of a numeric or boolean value.
func present(v value) ([]float64, error) {
	switch v.kind {
	case kindNumber:
		return []float64{v.num}, nil
	case kindNumbers:
		out := make([]float64, 0, len(v.nums))
		for _, x := range v.nums {
			if !math.IsNaN(x) {
				out = append(out, x)
			}
		}
		return out, nil
	case kindBools:
		out := make([]float64, len(v.bools))
		for i, b := range v.bools {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expects a numeric column, got %s", v.kind)
	}
}

func builtinLen(args []value) (value, error) {
	if err := arity(args, 1, 1); err != nil {
		return value{}, err
	}
	switch v := args[0]; {
	case v.kind == kindString:
		return number(float64(utf8.RuneCountInString(v.str))), nil
	case v.isColumn() || v.kind == kindTable:
		return number(float64(v.length())), nil
	default:
		return value{}, fmt.Errorf("not defined on %s", v.kind)
	}
}

func builtinCount(args []value) (value, error) {
	if err := arity(args, 1, 1); err != nil {
		return value{}, err
	}
	v := args[0]
	switch v.kind {
	case kindNumbers:
		vals, _ := present(v)
		return number(float64(len(vals))), nil
	case kindStrings:
		n := 0
		for _, isNull := range v.null {
			if !isNull {
				n++
			}
		}
		return number(float64(n)), nil
	case kindBools, kindTable:
		return number(float64(v.length())), nil
	default:
		return number(1), nil
	}
}

// reducer aggregates the present values of one column. An empty column
// reduces to NaN.
func reducer(fn func([]float64) float64) builtin {
	return func(args []value) (value, error) {
		if err := arity(args, 1, 1); err != nil {
			return value{}, err
		}
		vals, err := present(args[0])
		if err != nil {
			return value{}, err
		}
		if len(vals) == 0 {
			return number(math.NaN()), nil
		}
		return number(fn(vals)), nil
	}
}

// extreme reduces one column, or two or more numbers.
func extreme(col func([]float64) float64, pair func(a, b float64) float64) builtin {
	reduce := reducer(col)
	return func(args []value) (value, error) {
		if len(args) < 2 {
			return reduce(args)
		}
		acc := math.NaN()
		for i, a := range args {
			if a.kind != kindNumber {
				return value{}, fmt.Errorf("argument %d: expects a number, got %s", i+1, a.kind)
			}
			if i == 0 {
				acc = a.num
				continue
			}
			acc = pair(acc, a.num)
		}
		return number(acc), nil
	}
}

func median(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	return stats.Quantile(sorted, 0.5)
}

func elementwise(fn func(float64) float64) builtin {
	return func(args []value) (value, error) {
		if err := arity(args, 1, 1); err != nil {
			return value{}, err
		}
		return mapNumbers(args[0], fn)
	}
}

func mapNumbers(v value, fn func(float64) float64) (value, error) {
	switch v.kind {
	case kindNumber:
		return number(fn(v.num)), nil
	case kindNumbers:
		out := make([]float64, len(v.nums))
		for i, x := range v.nums {
			out[i] = fn(x)
		}
		return numbers(out), nil
	default:
		return value{}, fmt.Errorf("expects a number or numeric column, got %s", v.kind)
	}
}

// builtinRound rounds half to even, optionally to a number of decimal places.
func builtinRound(args []value) (value, error) {
	if err := arity(args, 1, 2); err != nil {
		return value{}, err
	}
	scale := 1.0
	if len(args) == 2 {
		d := args[1]
		if d.kind != kindNumber || d.num != math.Trunc(d.num) {
			return value{}, errors.New("digits must be an integer")
		}
		scale = math.Pow(10, d.num)
	}
	return mapNumbers(args[0], func(x float64) float64 {
		return math.RoundToEven(x*scale) / scale
	})
}

// converter builds int and float: numbers pass through fn, strings are
// parsed first, booleans become 0 or 1. Unparseable column cells become missing.
func converter(fn func(float64) float64) builtin {
	return func(args []value) (value, error) {
		if err := arity(args, 1, 1); err != nil {
			return value{}, err
		}
		v := args[0]
		switch v.kind {
		case kindNumber, kindNumbers:
			return mapNumbers(v, fn)
		case kindString:
			f, ok := table.ParseNumber(v.str)
			if !ok {
				return value{}, fmt.Errorf("cannot convert %q to a number", v.str)
			}
			return number(fn(f)), nil
		case kindBool:
			if v.b {
				return number(1), nil
			}
			return number(0), nil
		case kindStrings:
			out := make([]float64, len(v.strs))
			for i, s := range v.strs {
				f, ok := table.ParseNumber(s)
				if v.null[i] || !ok {
					f = math.NaN()
				}
				out[i] = fn(f)
			}
			return numbers(out), nil
		case kindBools:
			vals, _ := present(v)
			return numbers(vals), nil
		default:
			return value{}, fmt.Errorf("cannot convert %s to a number", v.kind)
		}
	}
}

func builtinStr(args []value) (value, error) {
	if err := arity(args, 1, 1); err != nil {
		return value{}, err
	}
	v := args[0]
	switch v.kind {
	case kindNumber, kindString, kindBool:
		return text(v.format()), nil
	case kindStrings:
		return v, nil
	case kindNumbers, kindBools:
		col := v.column(resultName)
		strs := make([]string, col.Len())
		null := make([]bool, col.Len())
		for i := range strs {
			strs[i], _ = col.Str(i)
			null[i] = col.IsNull(i)
		}
		return texts(strs, null), nil
	default:
		return value{}, fmt.Errorf("cannot convert %s to a string", v.kind)
	}
}
