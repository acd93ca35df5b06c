package core

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/JonMunkholm/eda/internal/table"
)

// ============================================================================
// Filter Benchmarks
// ============================================================================

// BenchmarkApplyFilterSort benchmarks a range plus set filter with a sort.
// This runs on every filter request against the full filter base.
func BenchmarkApplyFilterSort(b *testing.B) {
	base := benchTable(b, 100000)
	filters := FilterSpec{
		"amount": {Min: ptr(100), Max: ptr(900)},
		"status": {Selected: []string{"active", "pending"}},
	}
	sortBy := &SortSpec{Column: "amount", Direction: Descending}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ApplyFilterSort(base, filters, sortBy)
	}
}

// BenchmarkApplyFilterSort_NoFilters benchmarks the reset path: every row kept.
func BenchmarkApplyFilterSort_NoFilters(b *testing.B) {
	base := benchTable(b, 100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ApplyFilterSort(base, nil, nil)
	}
}

// ============================================================================
// Missing Value Benchmarks
// ============================================================================

// BenchmarkResolveMissing_FillMedian benchmarks the most expensive fill.
func BenchmarkResolveMissing_FillMedian(b *testing.B) {
	t := benchTable(b, 100000)
	rep := table.BuildMissingReport(t)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ResolveMissing(t, rep, NumericFillMedian, CategoricalLeave); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkResolveMissing_DropRows benchmarks dropping incomplete rows.
func BenchmarkResolveMissing_DropRows(b *testing.B) {
	t := benchTable(b, 100000)
	rep := table.BuildMissingReport(t)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ResolveMissing(t, rep, NumericDropRows, CategoricalDropRows); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Session Benchmarks
// ============================================================================

// BenchmarkSession_FilterUndo benchmarks a filter commit followed by undo.
func BenchmarkSession_FilterUndo(b *testing.B) {
	ds := NewDatasetSession()
	if err := ds.Initialize(benchTable(b, 10000)); err != nil {
		b.Fatal(err)
	}
	filters := FilterSpec{"amount": {Min: ptr(500)}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ds.ApplyFilterSort(filters, nil); err != nil {
			b.Fatal(err)
		}
		if err := ds.Undo(); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates CSV data with the specified number of rows.
// Every tenth amount and every seventh status is blank.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"id", "amount", "status"})

	statuses := []string{"active", "pending", "closed"}
	for i := 0; i < rows; i++ {
		amount := strconv.Itoa(i % 1000)
		if i%10 == 0 {
			amount = ""
		}
		status := statuses[i%len(statuses)]
		if i%7 == 0 {
			status = ""
		}
		w.Write([]string{strconv.Itoa(i), amount, status})
	}
	w.Flush()

	return buf.Bytes()
}

func benchTable(b *testing.B, rows int) *table.Table {
	b.Helper()
	t, _, err := table.Load(bytes.NewReader(generateTestCSV(rows)), table.LoadOptions{})
	if err != nil {
		b.Fatal(err)
	}
	return t
}
