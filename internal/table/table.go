// Package table holds the tabular snapshots that every other package reads.
//
// A Table is an ordered set of named, typed columns that share a row count.
// Tables are immutable once built: every method that "modifies" a table
// returns a new one and leaves the receiver untouched, so a snapshot captured
// in a session history can be read concurrently without locking.
//
// Missing cells are tracked with an explicit null mask per column. Numeric
// columns additionally store NaN in missing positions so that callers that
// only care about values can use the raw slice through Floats.
package table

import (
	"errors"
	"fmt"
	"math"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so kinds render as names in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrLengthMismatch is returned when columns disagree on row count.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrRowOutOfRange is returned for row indices outside the table.
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrInvalidCell is returned when a raw value cannot be stored in a column.
	ErrInvalidCell = errors.New("invalid cell value")
)

// Column is a homogeneous, immutable sequence of values.
type Column struct {
	name string
	kind Kind
	nums []float64 // KindNumeric
	strs []string  // KindCategorical
	null []bool    // nil when no cell is missing
}

// NewNumeric builds a numeric column. NaN entries are treated as missing.
func NewNumeric(name string, values []float64) *Column {
	nums := make([]float64, len(values))
	copy(nums, values)

	var null []bool
	for i, v := range nums {
		if math.IsNaN(v) {
			if null == nil {
				null = make([]bool, len(nums))
			}
			null[i] = true
		}
	}
	return &Column{name: name, kind: KindNumeric, nums: nums, null: null}
}

// NewNumericWithNulls builds a numeric column with an explicit null mask.
// A nil mask means no value is missing. Missing positions are stored as NaN.
func NewNumericWithNulls(name string, values []float64, null []bool) *Column {
	nums := make([]float64, len(values))
	copy(nums, values)
	mask := compactMask(null, len(nums))
	for i := range nums {
		if mask != nil && mask[i] {
			nums[i] = math.NaN()
		}
	}
	return &Column{name: name, kind: KindNumeric, nums: nums, null: mask}
}

// NewCategorical builds a categorical column. A nil mask means no value is missing.
func NewCategorical(name string, values []string, null []bool) *Column {
	strs := make([]string, len(values))
	copy(strs, values)
	mask := compactMask(null, len(strs))
	for i := range strs {
		if mask != nil && mask[i] {
			strs[i] = ""
		}
	}
	return &Column{name: name, kind: KindCategorical, strs: strs, null: mask}
}

// compactMask copies mask, sized to n, and returns nil when nothing is set.
func compactMask(mask []bool, n int) []bool {
	var out []bool
	for i := 0; i < n && i < len(mask); i++ {
		if mask[i] {
			if out == nil {
				out = make([]bool, n)
			}
			out[i] = true
		}
	}
	return out
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool { return c.kind == KindNumeric }

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.kind == KindNumeric {
		return len(c.nums)
	}
	return len(c.strs)
}

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool {
	return c.null != nil && c.null[i]
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.null {
		if isNull {
			n++
		}
	}
	return n
}

// Float returns the numeric value of cell i. ok is false for missing cells
// and for categorical columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.kind != KindNumeric || c.IsNull(i) {
		return math.NaN(), false
	}
	return c.nums[i], true
}

// Str returns the categorical value of cell i. ok is false for missing cells.
// Numeric cells are formatted.
func (c *Column) Str(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	if c.kind == KindNumeric {
		return FormatNumber(c.nums[i]), true
	}
	return c.strs[i], true
}

// Format renders cell i for display and export. Missing cells are empty.
func (c *Column) Format(i int) string {
	s, _ := c.Str(i)
	return s
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if !c.IsNull(i) {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns the non-missing values, formatted, in row order.
func (c *Column) Strings() []string {
	out := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if s, ok := c.Str(i); ok {
			out = append(out, s)
		}
	}
	return out
}

// take returns a new column holding the cells at idx, in that order.
func (c *Column) take(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	var null []bool
	if c.null != nil {
		null = make([]bool, len(idx))
	}
	if c.kind == KindNumeric {
		out.nums = make([]float64, len(idx))
		for j, i := range idx {
			out.nums[j] = c.nums[i]
		}
	} else {
		out.strs = make([]string, len(idx))
		for j, i := range idx {
			out.strs[j] = c.strs[i]
		}
	}
	if null != nil {
		for j, i := range idx {
			null[j] = c.null[i]
		}
		out.null = compactMask(null, len(idx))
	}
	return out
}

// withCell returns a copy of the column with cell i replaced.
func (c *Column) withCell(i int, num float64, str string, isNull bool) *Column {
	null := make([]bool, c.Len())
	copy(null, c.null)
	null[i] = isNull

	if c.kind == KindNumeric {
		nums := make([]float64, len(c.nums))
		copy(nums, c.nums)
		nums[i] = num
		return NewNumericWithNulls(c.name, nums, null)
	}
	strs := make([]string, len(c.strs))
	copy(strs, c.strs)
	strs[i] = str
	return NewCategorical(c.name, strs, null)
}

// Equal reports whether two columns hold the same name, kind and cells.
func (c *Column) Equal(o *Column) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil || c.name != o.name || c.kind != o.kind || c.Len() != o.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) != o.IsNull(i) {
			return false
		}
		if c.IsNull(i) {
			continue
		}
		if c.kind == KindNumeric {
			a, b := c.nums[i], o.nums[i]
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		} else if c.strs[i] != o.strs[i] {
			return false
		}
	}
	return true
}

// Table is an immutable ordered set of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. Names must be unique and lengths equal.
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), t.rows)
		}
		t.index[c.name] = i
		t.cols[i] = c
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for literals in tests
// and for internal derivations that are valid by construction.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumericColumns returns the names of numeric columns in order.
func (t *Table) NumericColumns() []string {
	return t.namesOfKind(KindNumeric)
}

// CategoricalColumns returns the names of categorical columns in order.
func (t *Table) CategoricalColumns() []string {
	return t.namesOfKind(KindCategorical)
}

func (t *Table) namesOfKind(k Kind) []string {
	var names []string
	for _, c := range t.cols {
		if c.kind == k {
			names = append(names, c.name)
		}
	}
	return names
}

// Take returns a table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(rows)
	}
	out := MustNew(cols...)
	out.rows = len(rows)
	return out
}

// DropColumn returns a table without the named column.
func (t *Table) DropColumn(name string) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	cols := make([]*Column, 0, len(t.cols)-1)
	cols = append(cols, t.cols[:i]...)
	cols = append(cols, t.cols[i+1:]...)
	out := MustNew(cols...)
	out.rows = t.rows
	return out, nil
}

// WithColumn returns a table where c replaces the column of the same name,
// or is appended when no such column exists.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.cols) > 0 && c.Len() != t.rows {
		return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), t.rows)
	}
	cols := t.Columns()
	if i, ok := t.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// SetCell returns a table with one cell replaced by the parsed raw value.
// Missing-value tokens clear the cell. Numeric columns reject values that do
// not parse as numbers.
func (t *Table) SetCell(row int, column, raw string) (*Table, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	if row < 0 || row >= t.rows {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, row, t.rows)
	}

	var next *Column
	switch {
	case IsMissing(raw):
		next = c.withCell(row, math.NaN(), "", true)
	case c.kind == KindNumeric:
		v, ok := ParseNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number (column %q)", ErrInvalidCell, raw, column)
		}
		next = c.withCell(row, v, "", false)
	default:
		next = c.withCell(row, 0, raw, false)
	}
	return t.WithColumn(next)
}

// Row returns the formatted cells of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Format(i)
	}
	return out
}

// Equal reports whether two tables hold the same columns and cells.
// Identity is not required.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for i := range t.cols {
		if !t.cols[i].Equal(o.cols[i]) {
			return false
		}
	}
	return true
}
