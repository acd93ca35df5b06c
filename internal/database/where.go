package database

import (
	"fmt"
	"strings"
)

// WhereBuilder assembles a parameterized WHERE clause. Columns are trusted
// identifiers chosen by this package; values always go through placeholders.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.addCondition(column+" = %s", value)
}

// AddSince appends "column >= $n" for a non-zero bound.
func (wb *WhereBuilder) AddSince(column string, since any) {
	if isZero(since) {
		return
	}
	wb.addCondition(column+" >= %s", since)
}

// AddBefore appends "column < $n" for a non-zero bound.
func (wb *WhereBuilder) AddBefore(column string, before any) {
	if isZero(before) {
		return
	}
	wb.addCondition(column+" < %s", before)
}

// AddTimestampRange appends an inclusive range on column.
func (wb *WhereBuilder) AddTimestampRange(column string, start, end any) {
	wb.addCondition(column+" >= %s", start)
	wb.addCondition(column+" <= %s", end)
}

// NextArgIndex returns the number of the next placeholder, for LIMIT/OFFSET.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause with a leading " WHERE", or "" and nil args when
// no condition was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

func (wb *WhereBuilder) addCondition(format string, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf(format, fmt.Sprintf("$%d", wb.argIndex)))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case interface{ IsZero() bool }:
		return x.IsZero()
	default:
		return false
	}
}
