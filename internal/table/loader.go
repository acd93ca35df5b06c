package table

// loader.go parses an uploaded CSV stream into a Table plus the report of
// missing cells the resolver needs.
//
// The flow:
//  1. The stream is cleaned (BOM, invalid UTF-8) by NewCleanReader
//  2. The delimiter is sniffed from the first few KB unless configured
//  3. The header is read and normalized (blank → "Unnamed: N", duplicates → "name.1")
//  4. Rows are read; short rows are padded with missing cells, long rows fail
//  5. Each column is typed: numeric when every present cell parses as a number

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// sniffBytes is how much of the stream is inspected to guess the delimiter.
const sniffBytes = 4096

// LoadOptions controls CSV parsing.
type LoadOptions struct {
	// Delimiter separates fields. Zero sniffs among ',', ';' and '\t'.
	Delimiter rune

	// MaxRows limits the number of data rows; 0 means unlimited.
	MaxRows int
}

// LoadError reports why an uploaded file could not be turned into a table.
type LoadError struct {
	Line   int    // 1-based input line, 0 when not line specific
	Reason string // short machine-matchable reason, e.g. "empty file"
	Err    error  // underlying cause, may be nil
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load csv: ")
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// MissingReport summarizes missing cells at load time.
type MissingReport struct {
	TotalMissing    int            `json:"total_missing"`
	NumericCols     []string       `json:"numeric_cols"`
	CategoricalCols []string       `json:"categorical_cols"`
	MissingPerCol   map[string]int `json:"missing_per_col"`
}

// Load parses r as CSV. The returned report describes the parsed table
// before any missing-value handling.
func Load(r io.Reader, opts LoadOptions) (*Table, MissingReport, error) {
	br := NewCleanReader(r)

	delim := opts.Delimiter
	if delim == 0 {
		head, _ := br.Peek(sniffBytes)
		delim = sniffDelimiter(head)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, MissingReport{}, &LoadError{Reason: "empty file"}
		}
		return nil, MissingReport{}, parseFailure(err)
	}
	names := normalizeHeader(header)

	raw := make([][]string, len(names))
	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, MissingReport{}, parseFailure(err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(names) {
			return nil, MissingReport{}, &LoadError{
				Line:   line,
				Reason: "invalid csv",
				Err:    fmt.Errorf("expected %d fields, got %d", len(names), len(rec)),
			}
		}
		if opts.MaxRows > 0 && rows >= opts.MaxRows {
			return nil, MissingReport{}, &LoadError{
				Line:   line,
				Reason: "too many rows",
				Err:    fmt.Errorf("limit is %d", opts.MaxRows),
			}
		}
		for j := range names {
			cell := ""
			if j < len(rec) {
				cell = rec[j]
			}
			raw[j] = append(raw[j], cell)
		}
		rows++
	}

	cols := make([]*Column, len(names))
	for j, name := range names {
		cols[j] = inferColumn(name, raw[j])
	}
	t, err := New(cols...)
	if err != nil {
		return nil, MissingReport{}, &LoadError{Reason: "invalid csv", Err: err}
	}
	return t, BuildMissingReport(t), nil
}

// parseFailure converts an encoding/csv error into a LoadError.
func parseFailure(err error) *LoadError {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Line: pe.Line, Reason: "invalid csv", Err: pe.Err}
	}
	return &LoadError{Reason: "read failed", Err: err}
}

// normalizeHeader fills blank names and de-duplicates repeated ones.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// inferColumn types a raw column. A column is numeric when it has at least one
// row and every present cell parses as a number; all-missing columns are numeric.
func inferColumn(name string, cells []string) *Column {
	null := make([]bool, len(cells))
	nums := make([]float64, len(cells))
	numeric := len(cells) > 0
	for i, cell := range cells {
		if IsMissing(cell) {
			null[i] = true
			continue
		}
		if !numeric {
			continue
		}
		v, ok := ParseNumber(cell)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = v
	}
	if numeric {
		return NewNumericWithNulls(name, nums, null)
	}
	return NewCategorical(name, cells, null)
}

// sniffDelimiter picks the candidate that occurs most often, outside quotes,
// on the first line of head. Ties and empty input fall back to a comma.
func sniffDelimiter(head []byte) rune {
	line := string(head)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',', ';', '\t':
			if !inQuotes {
				counts[r]++
			}
		}
	}

	best, bestCount := ',', counts[',']
	for _, r := range []rune{';', '\t'} {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

// BuildMissingReport counts missing cells per column. NumericCols and
// CategoricalCols list only the columns that have at least one missing cell.
func BuildMissingReport(t *Table) MissingReport {
	rep := MissingReport{
		NumericCols:     []string{},
		CategoricalCols: []string{},
		MissingPerCol:   make(map[string]int, t.NumCols()),
	}
	for _, c := range t.Columns() {
		n := c.NullCount()
		rep.MissingPerCol[c.Name()] = n
		rep.TotalMissing += n
		if n == 0 {
			continue
		}
		if c.IsNumeric() {
			rep.NumericCols = append(rep.NumericCols, c.Name())
		} else {
			rep.CategoricalCols = append(rep.CategoricalCols, c.Name())
		}
	}
	return rep
}
