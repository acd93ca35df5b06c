// Package metric evaluates user-defined metrics over a table.
//
// A program is a sequence of assignments, one per line or separated by ';':
//
//	ratio = df["revenue"] / df["cost"]
//	result = mean(ratio)  # average margin
//
// Expressions use Go operator syntax and are restricted to literals, names
// bound by earlier statements, column references (df["name"] or df.name) and
// an allow-list of functions. The program must assign `result`. The grammar is
// closed but evaluation cost grows with table size times statement count.
package metric

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/eda/internal/table"
)

const (
	tableName  = "df"
	resultName = "result"

	// DefaultMaxSource is the default limit on program size in bytes.
	DefaultMaxSource = 16 << 10

	// DefaultMaxStatements is the default limit on statements per program.
	DefaultMaxStatements = 100
)

// NoResultMessage is reported when a program never assigns result.
const NoResultMessage = "program ran but produced no result (assign it with result = ...)"

// ErrDivisionByZero is returned for scalar division or modulo by zero.
var ErrDivisionByZero = errors.New("division by zero")

// EvaluationError describes any fault in parsing or running a program.
type EvaluationError struct {
	Line int // 1-based source line, 0 when unknown
	Msg  string
	Err  error
}

func (e *EvaluationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("metric evaluation: line %d: %s", e.Line, e.Msg)
	}
	return "metric evaluation: " + e.Msg
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func newError(line int, msg string) *EvaluationError {
	return &EvaluationError{Line: line, Msg: msg}
}

func wrapError(line int, err error) *EvaluationError {
	return &EvaluationError{Line: line, Msg: err.Error(), Err: err}
}

// ResultKind says what a program produced.
type ResultKind string

const (
	ResultScalar ResultKind = "scalar"
	ResultColumn ResultKind = "column"
	ResultNone   ResultKind = "none"
)

// Result is the outcome of a successful evaluation.
type Result struct {
	Kind    ResultKind    `json:"kind" yaml:"kind"`
	Scalar  string        `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Column  *table.Column `json:"-" yaml:"-"`
	Values  []any         `json:"values,omitempty" yaml:"values,omitempty"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
}

// String renders the result for display.
func (r Result) String() string {
	switch r.Kind {
	case ResultScalar:
		return r.Scalar
	case ResultColumn:
		return fmt.Sprintf("column %q (%d rows)", r.Column.Name(), r.Column.Len())
	default:
		return r.Message
	}
}

// Limits bounds the programs an Evaluator accepts. Zero fields take defaults.
type Limits struct {
	MaxSource     int
	MaxStatements int
}

// Evaluator runs metric programs.
type Evaluator struct {
	limits Limits
}

// NewEvaluator creates an evaluator with the given limits.
func NewEvaluator(limits Limits) *Evaluator {
	if limits.MaxSource <= 0 {
		limits.MaxSource = DefaultMaxSource
	}
	if limits.MaxStatements <= 0 {
		limits.MaxStatements = DefaultMaxStatements
	}
	return &Evaluator{limits: limits}
}

// Limits returns the evaluator's effective limits.
func (ev *Evaluator) Limits() Limits { return ev.limits }

// Evaluate runs source against t with default limits.
func Evaluate(ctx context.Context, t *table.Table, source string) (Result, error) {
	return NewEvaluator(Limits{}).Evaluate(ctx, t, source)
}

// Evaluate parses and runs source with t bound to df. Every failure is an
// *EvaluationError except context cancellation. t is never modified.
func (ev *Evaluator) Evaluate(ctx context.Context, t *table.Table, source string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, newError(0, fmt.Sprintf("internal fault: %v", r))
		}
	}()

	if t == nil {
		return Result{}, newError(0, "no dataset loaded")
	}
	if len(source) > ev.limits.MaxSource {
		return Result{}, newError(0, fmt.Sprintf("program too long (%d bytes, limit %d)", len(source), ev.limits.MaxSource))
	}
	stmts, err := parseProgram(source, ev.limits.MaxStatements)
	if err != nil {
		return Result{}, err
	}

	s := &scope{tbl: t, vars: make(map[string]value, len(stmts))}
	for _, st := range stmts {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		v, err := s.eval(st.expr)
		if err != nil {
			return Result{}, wrapError(st.line, err)
		}
		if v.kind == kindTable {
			return Result{}, newError(st.line, "cannot assign the whole table; select a column with df[\"name\"]")
		}
		s.vars[st.name] = v
	}

	v, ok := s.vars[resultName]
	if !ok {
		return Result{Kind: ResultNone, Message: NoResultMessage}, nil
	}
	if v.isColumn() {
		col := v.column(resultName)
		return Result{Kind: ResultColumn, Column: col, Values: table.JSONValues(col)}, nil
	}
	return Result{Kind: ResultScalar, Scalar: v.format()}, nil
}
