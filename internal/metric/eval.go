package metric

import (
	"fmt"
	"go/ast"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/eda/internal/table"
)

// scope holds the table and the names bound so far.
type scope struct {
	tbl  *table.Table
	vars map[string]value
}

func (s *scope) eval(e ast.Expr) (value, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		return literal(n)
	case *ast.Ident:
		switch n.Name {
		case tableName:
			return tableValue(s.tbl), nil
		case "true":
			return boolean(true), nil
		case "false":
			return boolean(false), nil
		}
		v, ok := s.vars[n.Name]
		if !ok {
			return value{}, fmt.Errorf("undefined name %q", n.Name)
		}
		return v, nil
	case *ast.ParenExpr:
		return s.eval(n.X)
	case *ast.UnaryExpr:
		x, err := s.eval(n.X)
		if err != nil {
			return value{}, err
		}
		return unary(n.Op, x)
	case *ast.BinaryExpr:
		x, err := s.eval(n.X)
		if err != nil {
			return value{}, err
		}
		if x.kind == kindBool && (n.Op == token.LAND && !x.b || n.Op == token.LOR && x.b) {
			return x, nil
		}
		y, err := s.eval(n.Y)
		if err != nil {
			return value{}, err
		}
		return binary(n.Op, x, y)
	case *ast.IndexExpr:
		key, err := s.eval(n.Index)
		if err != nil {
			return value{}, err
		}
		if key.kind != kindString {
			return value{}, fmt.Errorf("column name must be a string, got %s", key.kind)
		}
		return s.column(key.str)
	case *ast.SelectorExpr:
		return s.column(n.Sel.Name)
	case *ast.CallExpr:
		name := n.Fun.(*ast.Ident).Name
		fn, ok := builtins[name]
		if !ok {
			return value{}, fmt.Errorf("unknown function %q", name)
		}
		args := make([]value, len(n.Args))
		for i, a := range n.Args {
			v, err := s.eval(a)
			if err != nil {
				return value{}, err
			}
			args[i] = v
		}
		v, err := fn(args)
		if err != nil {
			return value{}, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	default:
		return value{}, fmt.Errorf("unsupported expression %T", e)
	}
}

func (s *scope) column(name string) (value, error) {
	c, ok := s.tbl.Column(name)
	if !ok {
		return value{}, fmt.Errorf("column not found: %q", name)
	}
	return fromColumn(c), nil
}

func literal(n *ast.BasicLit) (value, error) {
	switch n.Kind {
	case token.INT:
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return number(float64(i)), nil
		}
		fallthrough
	case token.FLOAT:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
		if err != nil {
			return value{}, fmt.Errorf("invalid number %s", n.Value)
		}
		return number(f), nil
	case token.STRING:
		s, err := strconv.Unquote(n.Value)
		if err != nil {
			return value{}, fmt.Errorf("invalid string %s", n.Value)
		}
		return text(s), nil
	default:
		return value{}, fmt.Errorf("unsupported literal %s", n.Value)
	}
}

func isNumeric(v value) bool { return v.kind == kindNumber || v.kind == kindNumbers }
func isText(v value) bool    { return v.kind == kindString || v.kind == kindStrings }
func isBool(v value) bool    { return v.kind == kindBool || v.kind == kindBools }

func (v value) numAt(i int) float64 {
	if v.kind == kindNumbers {
		return v.nums[i]
	}
	return v.num
}

func (v value) strAt(i int) (string, bool) {
	if v.kind == kindStrings {
		return v.strs[i], !v.null[i]
	}
	return v.str, true
}

func (v value) boolAt(i int) bool {
	if v.kind == kindBools {
		return v.bools[i]
	}
	return v.b
}

// broadcast returns the element count of combining x and y and whether the
// result is a column.
func broadcast(x, y value) (n int, col bool, err error) {
	switch {
	case x.isColumn() && y.isColumn():
		if x.length() != y.length() {
			return 0, false, fmt.Errorf("column lengths differ (%d and %d)", x.length(), y.length())
		}
		return x.length(), true, nil
	case x.isColumn():
		return x.length(), true, nil
	case y.isColumn():
		return y.length(), true, nil
	default:
		return 1, false, nil
	}
}

func unary(op token.Token, x value) (value, error) {
	switch {
	case (op == token.SUB || op == token.ADD) && isNumeric(x):
		sign := 1.0
		if op == token.SUB {
			sign = -1
		}
		if x.kind == kindNumber {
			return number(sign * x.num), nil
		}
		out := make([]float64, len(x.nums))
		for i, v := range x.nums {
			out[i] = sign * v
		}
		return numbers(out), nil
	case op == token.NOT && isBool(x):
		if x.kind == kindBool {
			return boolean(!x.b), nil
		}
		out := make([]bool, len(x.bools))
		for i, b := range x.bools {
			out[i] = !b
		}
		return bools(out), nil
	default:
		return value{}, fmt.Errorf("operator %s not defined on %s", op, x.kind)
	}
}

func binary(op token.Token, x, y value) (value, error) {
	if x.kind == kindTable || y.kind == kindTable {
		return value{}, fmt.Errorf("cannot use %s in an expression; select a column with %s[\"name\"]", tableName, tableName)
	}
	n, col, err := broadcast(x, y)
	if err != nil {
		return value{}, err
	}

	switch op {
	case token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
		if op == token.ADD && isText(x) && isText(y) {
			return concat(x, y, n, col), nil
		}
		if !isNumeric(x) || !isNumeric(y) {
			return value{}, fmt.Errorf("operator %s not defined on %s and %s", op, x.kind, y.kind)
		}
		if !col {
			if (op == token.QUO || op == token.REM) && y.num == 0 {
				return value{}, ErrDivisionByZero
			}
			return number(arith(op, x.num, y.num)), nil
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = arith(op, x.numAt(i), y.numAt(i))
		}
		return numbers(out), nil

	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		var cmp func(i int) bool
		switch {
		case isNumeric(x) && isNumeric(y):
			cmp = func(i int) bool { return compareFloat(op, x.numAt(i), y.numAt(i)) }
		case isText(x) && isText(y):
			cmp = func(i int) bool {
				a, okA := x.strAt(i)
				b, okB := y.strAt(i)
				if !okA || !okB {
					return op == token.NEQ
				}
				return compareString(op, a, b)
			}
		case isBool(x) && isBool(y) && (op == token.EQL || op == token.NEQ):
			cmp = func(i int) bool { return (x.boolAt(i) == y.boolAt(i)) == (op == token.EQL) }
		default:
			return value{}, fmt.Errorf("cannot compare %s and %s with %s", x.kind, y.kind, op)
		}
		if !col {
			return boolean(cmp(0)), nil
		}
		out := make([]bool, n)
		for i := range out {
			out[i] = cmp(i)
		}
		return bools(out), nil

	case token.LAND, token.LOR:
		if !isBool(x) || !isBool(y) {
			return value{}, fmt.Errorf("operator %s not defined on %s and %s", op, x.kind, y.kind)
		}
		logic := func(i int) bool {
			if op == token.LAND {
				return x.boolAt(i) && y.boolAt(i)
			}
			return x.boolAt(i) || y.boolAt(i)
		}
		if !col {
			return boolean(logic(0)), nil
		}
		out := make([]bool, n)
		for i := range out {
			out[i] = logic(i)
		}
		return bools(out), nil
	}
	return value{}, fmt.Errorf("unsupported operator %s", op)
}

// arith applies op with IEEE semantics; NaN operands propagate.
func arith(op token.Token, a, b float64) float64 {
	switch op {
	case token.ADD:
		return a + b
	case token.SUB:
		return a - b
	case token.MUL:
		return a * b
	case token.QUO:
		return a / b
	default:
		return math.Mod(a, b)
	}
}

func compareFloat(op token.Token, a, b float64) bool {
	switch op {
	case token.EQL:
		return a == b
	case token.NEQ:
		return a != b
	case token.LSS:
		return a < b
	case token.LEQ:
		return a <= b
	case token.GTR:
		return a > b
	default:
		return a >= b
	}
}

func compareString(op token.Token, a, b string) bool {
	c := strings.Compare(a, b)
	switch op {
	case token.EQL:
		return c == 0
	case token.NEQ:
		return c != 0
	case token.LSS:
		return c < 0
	case token.LEQ:
		return c <= 0
	case token.GTR:
		return c > 0
	default:
		return c >= 0
	}
}

func concat(x, y value, n int, col bool) value {
	if !col {
		return text(x.str + y.str)
	}
	strs := make([]string, n)
	null := make([]bool, n)
	for i := range strs {
		a, okA := x.strAt(i)
		b, okB := y.strAt(i)
		if okA && okB {
			strs[i] = a + b
		} else {
			null[i] = true
		}
	}
	return texts(strs, null)
}
