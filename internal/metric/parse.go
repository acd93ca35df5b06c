package metric

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
)

// prelude wraps a program so go/parser reads it as a function body.
const prelude = "package metric\nfunc _() {\n"

var preludeLines = strings.Count(prelude, "\n")

// statement is one validated `name = expr` assignment.
type statement struct {
	line int
	name string
	expr ast.Expr
}

// parseProgram parses and validates source. Every construct outside the
// closed grammar is rejected here, before any evaluation.
func parseProgram(source string, maxStatements int) ([]statement, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "metric", prelude+normalize(source)+"\n}\n", 0)
	if err != nil {
		return nil, syntaxError(err)
	}
	body := file.Decls[0].(*ast.FuncDecl).Body

	bound := map[string]bool{}
	stmts := make([]statement, 0, len(body.List))
	for _, s := range body.List {
		line := fset.Position(s.Pos()).Line - preludeLines
		if _, ok := s.(*ast.EmptyStmt); ok {
			continue
		}
		assign, ok := s.(*ast.AssignStmt)
		if !ok || assign.Tok != token.ASSIGN || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
			return nil, newError(line, "only `name = expression` statements are allowed")
		}
		ident, ok := assign.Lhs[0].(*ast.Ident)
		if !ok || ident.Name == "_" {
			return nil, newError(line, "left side of an assignment must be a name")
		}
		if reserved(ident.Name) {
			return nil, newError(line, fmt.Sprintf("cannot assign to %q", ident.Name))
		}
		if err := check(assign.Rhs[0], bound); err != nil {
			return nil, newError(line, err.Error())
		}
		bound[ident.Name] = true
		stmts = append(stmts, statement{line: line, name: ident.Name, expr: assign.Rhs[0]})
		if maxStatements > 0 && len(stmts) > maxStatements {
			return nil, newError(line, fmt.Sprintf("too many statements (limit %d)", maxStatements))
		}
	}
	return stmts, nil
}

func reserved(name string) bool {
	if name == tableName || name == "true" || name == "false" {
		return true
	}
	_, ok := builtins[name]
	return ok
}

var binaryOps = map[token.Token]bool{
	token.ADD: true, token.SUB: true, token.MUL: true, token.QUO: true, token.REM: true,
	token.EQL: true, token.NEQ: true, token.LSS: true, token.LEQ: true, token.GTR: true, token.GEQ: true,
	token.LAND: true, token.LOR: true,
}

// check walks an expression and rejects anything the evaluator does not support.
func check(e ast.Expr, bound map[string]bool) error {
	switch n := e.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT && n.Kind != token.STRING {
			return fmt.Errorf("unsupported literal %s", n.Value)
		}
		return nil
	case *ast.Ident:
		if n.Name == tableName || n.Name == "true" || n.Name == "false" || bound[n.Name] {
			return nil
		}
		if _, ok := builtins[n.Name]; ok {
			return fmt.Errorf("function %s must be called", n.Name)
		}
		return fmt.Errorf("undefined name %q", n.Name)
	case *ast.ParenExpr:
		return check(n.X, bound)
	case *ast.UnaryExpr:
		if n.Op != token.SUB && n.Op != token.ADD && n.Op != token.NOT {
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		return check(n.X, bound)
	case *ast.BinaryExpr:
		if !binaryOps[n.Op] {
			return fmt.Errorf("unsupported operator %s", n.Op)
		}
		if err := check(n.X, bound); err != nil {
			return err
		}
		return check(n.Y, bound)
	case *ast.IndexExpr:
		if id, ok := n.X.(*ast.Ident); !ok || id.Name != tableName {
			return fmt.Errorf("only %s can be indexed", tableName)
		}
		return check(n.Index, bound)
	case *ast.SelectorExpr:
		if id, ok := n.X.(*ast.Ident); !ok || id.Name != tableName {
			return fmt.Errorf("attribute access is only allowed on %s", tableName)
		}
		return nil
	case *ast.CallExpr:
		id, ok := n.Fun.(*ast.Ident)
		if !ok {
			return errors.New("only built-in functions can be called")
		}
		if _, ok := builtins[id.Name]; !ok {
			return fmt.Errorf("unknown function %q", id.Name)
		}
		if n.Ellipsis.IsValid() {
			return errors.New("variadic calls are not supported")
		}
		for _, arg := range n.Args {
			if err := check(arg, bound); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
}

// normalize removes `#` comments and rewrites single-quoted strings as Go
// string literals. Text inside string literals is left alone.
func normalize(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case '"', '`':
			end := closing(src, i, c)
			b.WriteString(src[i:end])
			i = end - 1
		case '\'':
			end := closing(src, i, c)
			lit := src[i:end]
			if len(lit) >= 2 && lit[len(lit)-1] == '\'' {
				if unquoted, err := strconv.Unquote(`"` + lit[1:len(lit)-1] + `"`); err == nil {
					lit = strconv.Quote(unquoted)
				}
			}
			b.WriteString(lit)
			i = end - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// closing returns the index just past the literal opened by quote at start,
// or len(src) when it is unterminated.
func closing(src string, start int, quote byte) int {
	for i := start + 1; i < len(src); i++ {
		switch {
		case src[i] == '\\' && quote != '`':
			i++
		case src[i] == quote:
			return i + 1
		case src[i] == '\n' && quote != '`':
			return i
		}
	}
	return len(src)
}

func syntaxError(err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		line := first.Pos.Line - preludeLines
		if line < 1 {
			line = 1
		}
		return newError(line, "syntax error: "+first.Msg)
	}
	return newError(0, "syntax error: "+err.Error())
}
