package core

import (
	"reflect"
	"testing"

	"github.com/JonMunkholm/eda/internal/table"
)

func filterBase() *table.Table {
	return table.MustNew(
		table.NewNumericWithNulls("age", []float64{5, 10, 15, 20, 25, 0}, []bool{false, false, false, false, false, true}),
		table.NewNumeric("score", []float64{3, 1, 3, 2, 5, 4}),
		table.NewCategorical("team", []string{"red", "blue", "red", "", "green", "blue"}, []bool{false, false, false, true, false, false}),
	)
}

func TestApplyFilterSort(t *testing.T) {
	tests := []struct {
		name      string
		filters   FilterSpec
		sortBy    *SortSpec
		wantScore []float64
	}{
		{name: "no filters keeps every row", wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "inclusive range", filters: FilterSpec{"age": {Min: ptr(10), Max: ptr(20)}}, wantScore: []float64{1, 3, 2}},
		{name: "only min", filters: FilterSpec{"age": {Min: ptr(20)}}, wantScore: []float64{2, 5}},
		{name: "predicate without bounds keeps every row", filters: FilterSpec{"age": {}}, wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "selected set", filters: FilterSpec{"team": {Selected: []string{"red", "green"}}}, wantScore: []float64{3, 3, 5}},
		{name: "empty selected is no filter", filters: FilterSpec{"team": {Selected: []string{}}}, wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "unknown column ignored", filters: FilterSpec{"height": {Min: ptr(1)}}, wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "range on categorical ignored", filters: FilterSpec{"team": {Min: ptr(1)}}, wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "combined predicates", filters: FilterSpec{"age": {Max: ptr(15)}, "team": {Selected: []string{"red"}}}, wantScore: []float64{3, 3}},
		{name: "stable ascending sort", sortBy: &SortSpec{Column: "score", Direction: Ascending}, wantScore: []float64{1, 2, 3, 3, 4, 5}},
		{name: "descending sort", sortBy: &SortSpec{Column: "score", Direction: Descending}, wantScore: []float64{5, 4, 3, 3, 2, 1}},
		{name: "sort on categorical ignored", sortBy: &SortSpec{Column: "team"}, wantScore: []float64{3, 1, 3, 2, 5, 4}},
		{name: "missing sorts last", sortBy: &SortSpec{Column: "age", Direction: Descending}, wantScore: []float64{5, 2, 3, 1, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := filterBase()
			got := ApplyFilterSort(base, tt.filters, tt.sortBy)
			score, _ := got.Column("score")
			if !reflect.DeepEqual(score.Floats(), tt.wantScore) {
				t.Errorf("scores = %v, want %v", score.Floats(), tt.wantScore)
			}
			if !base.Equal(filterBase()) {
				t.Error("base was modified")
			}
		})
	}
}

func TestApplyFilterSort_StableOrder(t *testing.T) {
	base := table.MustNew(
		table.NewNumeric("score", []float64{3, 1, 3, 2}),
		table.NewCategorical("id", []string{"a", "b", "c", "d"}, nil),
	)
	got := ApplyFilterSort(base, nil, &SortSpec{Column: "score", Direction: Ascending})
	id, _ := got.Column("id")
	if want := []string{"b", "d", "a", "c"}; !reflect.DeepEqual(id.Strings(), want) {
		t.Errorf("ids = %v, want %v", id.Strings(), want)
	}
}

func TestApplyFilterSort_MissingNeverMatches(t *testing.T) {
	got := ApplyFilterSort(filterBase(), FilterSpec{"age": {Min: ptr(-1000), Max: ptr(1000)}}, nil)
	if got.NumRows() != 5 {
		t.Errorf("rows = %d, want 5", got.NumRows())
	}
}

func TestParseDirection(t *testing.T) {
	tests := map[string]Direction{
		"asc":  Ascending,
		"DESC": Descending,
		"":     Ascending,
		"down": Ascending,
	}
	for in, want := range tests {
		if got := ParseDirection(in); got != want {
			t.Errorf("ParseDirection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterSpec_Clone(t *testing.T) {
	orig := FilterSpec{"team": {Selected: []string{"red"}}}
	c := orig.Clone()
	c["team"].Selected[0] = "blue"
	if orig["team"].Selected[0] != "red" {
		t.Error("Clone shares Selected slices with the original")
	}
	if FilterSpec(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
