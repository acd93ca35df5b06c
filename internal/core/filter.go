package core

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/JonMunkholm/eda/internal/table"
)

// Predicate describes the filter on one column. Numeric columns use the
// inclusive Min/Max bounds, either of which may be nil. Categorical columns
// use Selected; an empty Selected set does not filter.
type Predicate struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Selected []string `json:"selected,omitempty"`
}

// IsRange reports whether p carries numeric bounds.
func (p Predicate) IsRange() bool { return p.Min != nil || p.Max != nil }

// FilterSpec maps a column name to its predicate. Columns absent from the
// map are not filtered.
type FilterSpec map[string]Predicate

// Clone returns a deep copy of the spec.
func (f FilterSpec) Clone() FilterSpec {
	if f == nil {
		return nil
	}
	out := make(FilterSpec, len(f))
	for col, p := range f {
		c := Predicate{Selected: slices.Clone(p.Selected)}
		if p.Min != nil {
			v := *p.Min
			c.Min = &v
		}
		if p.Max != nil {
			v := *p.Max
			c.Max = &v
		}
		out[col] = c
	}
	return out
}

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc", "ascending", "desc" and "descending" in any
// case. Anything else is ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// SortSpec selects a single numeric sort column. A nil *SortSpec means no sort.
type SortSpec struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Clone returns a copy of s, or nil.
func (s *SortSpec) Clone() *SortSpec {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ApplyFilterSort derives a table from base by keeping the rows that satisfy
// every predicate in filters and then stable-sorting by sort, if any.
//
// The function is lenient toward stale or mismatched requests:
//   - predicates on columns that base does not have are ignored
//   - range predicates on categorical columns and Selected sets on numeric
//     columns are ignored
//   - a sort on a missing or non-numeric column is ignored
//
// Missing cells never satisfy an active predicate and always sort last.
// base is never modified.
func ApplyFilterSort(base *table.Table, filters FilterSpec, sortBy *SortSpec) *table.Table {
	keep := make([]int, 0, base.NumRows())
	checks := compileFilters(base, filters)
	for i := 0; i < base.NumRows(); i++ {
		ok := true
		for _, check := range checks {
			if !check(i) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	if sortBy != nil {
		if c, found := base.Column(sortBy.Column); found && c.IsNumeric() {
			desc := sortBy.Direction == Descending
			sort.SliceStable(keep, func(a, b int) bool {
				va, okA := c.Float(keep[a])
				vb, okB := c.Float(keep[b])
				switch {
				case !okA || !okB:
					return okA && !okB
				case desc:
					return va > vb
				default:
					return va < vb
				}
			})
		}
	}

	return base.Take(keep)
}

// compileFilters turns the applicable predicates into row checks.
// Columns are visited in name order so results do not depend on map order.
func compileFilters(base *table.Table, filters FilterSpec) []func(int) bool {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var checks []func(int) bool
	for _, name := range names {
		p := filters[name]
		c, ok := base.Column(name)
		if !ok {
			continue
		}
		switch {
		case c.IsNumeric() && p.IsRange():
			lo, hi := math.Inf(-1), math.Inf(1)
			if p.Min != nil {
				lo = *p.Min
			}
			if p.Max != nil {
				hi = *p.Max
			}
			checks = append(checks, func(i int) bool {
				v, ok := c.Float(i)
				return ok && v >= lo && v <= hi
			})
		case !c.IsNumeric() && len(p.Selected) > 0:
			allowed := make(map[string]struct{}, len(p.Selected))
			for _, s := range p.Selected {
				allowed[s] = struct{}{}
			}
			checks = append(checks, func(i int) bool {
				s, ok := c.Str(i)
				if !ok {
					return false
				}
				_, in := allowed[s]
				return in
			})
		}
	}
	return checks
}
