// Package chart maps tables to plotly-compatible figure specifications.
//
// The functions here are pure: they read a table snapshot and return a Figure
// that a browser-side plotting library renders. Missing cells become JSON
// nulls, which plotly draws as gaps.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/eda/internal/table"
)

var (
	// ErrUnknownColumn is returned when a request names a column the table lacks.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotNumeric is returned when a numeric axis is bound to a categorical column.
	ErrNotNumeric = errors.New("column is not numeric")

	// ErrUnknownKind is returned by Build for an unsupported chart kind.
	ErrUnknownKind = errors.New("unknown chart kind")
)

// Kind names a chart type.
type Kind string

const (
	KindHistogram Kind = "histogram"
	KindBox       Kind = "box"
	KindScatter   Kind = "scatter"
	KindLine      Kind = "line"
	KindBar       Kind = "bar"
)

// Kinds lists the supported chart kinds.
var Kinds = []Kind{KindHistogram, KindBox, KindScatter, KindLine, KindBar}

// Figure is a plotly figure: a list of traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one plotly trace. Only the attributes this package sets are modeled.
type Trace struct {
	Type   string `json:"type"`
	Mode   string `json:"mode,omitempty"`
	Name   string `json:"name,omitempty"`
	X      []any  `json:"x,omitempty"`
	Y      []any  `json:"y,omitempty"`
	NBinsX int    `json:"nbinsx,omitempty"`
}

// Layout holds figure-level attributes.
type Layout struct {
	Title      string `json:"title"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	ShowLegend bool   `json:"showlegend"`
	BarMode    string `json:"barmode,omitempty"`
}

// Axis is an axis title.
type Axis struct {
	Title string `json:"title"`
}

// Request selects a chart and its column bindings.
type Request struct {
	Kind  Kind     `json:"kind"`
	X     string   `json:"x,omitempty"`
	Y     string   `json:"y,omitempty"`
	Ys    []string `json:"ys,omitempty"`
	Color string   `json:"color,omitempty"`
	Bins  int      `json:"bins,omitempty"`
	Title string   `json:"title,omitempty"`
}

// Build dispatches req to the matching chart function.
func Build(t *table.Table, req Request) (*Figure, error) {
	var (
		fig *Figure
		err error
	)
	switch Kind(strings.ToLower(string(req.Kind))) {
	case KindHistogram:
		fig, err = Histogram(t, req.X, req.Bins, req.Color)
	case KindBox:
		ys := req.Ys
		if len(ys) == 0 && req.Y != "" {
			ys = []string{req.Y}
		}
		fig, err = Box(t, ys)
	case KindScatter:
		fig, err = Scatter(t, req.X, req.Y, req.Color)
	case KindLine:
		fig, err = Line(t, req.X, req.Y)
	case KindBar:
		fig, err = Bar(t, req.X, req.Color)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(req.Kind))
	}
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		fig.Layout.Title = req.Title
	}
	return fig, nil
}

func column(t *table.Table, name string) (*table.Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return c, nil
}

func numericColumn(t *table.Table, name string) (*table.Column, error) {
	c, err := column(t, name)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return c, nil
}

// group is a set of rows sharing a color value.
type group struct {
	name string
	rows []int
}

// missingGroup labels rows whose color value is missing.
const missingGroup = "(missing)"

// groupRows splits the rows of t by the color column, in order of first
// appearance. Without a color column every row is in one unnamed group.
func groupRows(t *table.Table, color string) ([]group, error) {
	if color == "" {
		rows := make([]int, t.NumRows())
		for i := range rows {
			rows[i] = i
		}
		return []group{{rows: rows}}, nil
	}
	c, err := column(t, color)
	if err != nil {
		return nil, err
	}
	var groups []group
	index := map[string]int{}
	for i := 0; i < c.Len(); i++ {
		key, ok := c.Str(i)
		if !ok {
			key = missingGroup
		}
		g, seen := index[key]
		if !seen {
			g = len(groups)
			index[key] = g
			groups = append(groups, group{name: key})
		}
		groups[g].rows = append(groups[g].rows, i)
	}
	return groups, nil
}

// cells returns the JSON values of c at rows.
func cells(c *table.Column, rows []int) []any {
	out := make([]any, len(rows))
	for j, i := range rows {
		if c.IsNull(i) {
			continue
		}
		if v, ok := c.Float(i); ok {
			out[j] = table.Float(v)
		} else {
			out[j], _ = c.Str(i)
		}
	}
	return out
}
