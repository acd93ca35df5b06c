package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/table"
)

// Recipe is a replayable list of dataset operations stored as YAML:
//
//	input: sales.csv
//	missing:
//	  numeric: fill_median
//	steps:
//	  - filter: {price: {min: 10}}
//	    sort: {column: price, direction: desc}
//	  - delete_column: notes
//	  - undo: true
//	output: clean.csv
type Recipe struct {
	Input   string `yaml:"input"`
	Missing struct {
		Numeric     string `yaml:"numeric"`
		Categorical string `yaml:"categorical"`
	} `yaml:"missing"`
	Steps  []Step `yaml:"steps"`
	Output string `yaml:"output"`
}

// Step is one operation. Exactly one of filter (with an optional sort),
// reset, undo, delete_column or edit must be set.
type Step struct {
	Filter       core.FilterSpec `yaml:"filter,omitempty"`
	Sort         *core.SortSpec  `yaml:"sort,omitempty"`
	Reset        bool            `yaml:"reset,omitempty"`
	Undo         bool            `yaml:"undo,omitempty"`
	DeleteColumn string          `yaml:"delete_column,omitempty"`
	Edit         *core.CellEdit  `yaml:"edit,omitempty"`
}

// name returns the operation the step performs.
func (s Step) name() string {
	switch {
	case s.Filter != nil || s.Sort != nil:
		return "filter"
	case s.Reset:
		return "reset"
	case s.Undo:
		return "undo"
	case s.DeleteColumn != "":
		return "delete_column"
	case s.Edit != nil:
		return "edit"
	}
	return ""
}

func (s Step) validate() error {
	n := 0
	for _, set := range []bool{
		s.Filter != nil || s.Sort != nil,
		s.Reset,
		s.Undo,
		s.DeleteColumn != "",
		s.Edit != nil,
	} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return errors.New("empty step")
	case n > 1:
		return errors.New("a step must hold exactly one operation")
	case s.Sort != nil && s.Sort.Column == "":
		return errors.New("sort needs a column")
	case s.Edit != nil && s.Edit.Column == "":
		return errors.New("edit needs a column")
	}
	return nil
}

// LoadRecipe reads and validates a recipe file. A relative input or output
// path is resolved against the recipe's directory.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parse recipe %s: %w", path, err)
	}

	var errs []error
	for i, s := range r.Steps {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
		if s.Sort != nil {
			r.Steps[i].Sort.Direction = core.ParseDirection(string(s.Sort.Direction))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&r.Input, &r.Output} {
		if *p != "" && *p != "-" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &r, nil
}

// apply runs one step against the session.
func (s Step) apply(ds *core.DatasetSession) error {
	switch s.name() {
	case "filter":
		return ds.ApplyFilterSort(s.Filter, s.Sort)
	case "reset":
		return ds.ResetFilters()
	case "undo":
		return ds.Undo()
	case "delete_column":
		return ds.DeleteColumn(s.DeleteColumn)
	case "edit":
		_, err := ds.EditCell(s.Edit.Row, s.Edit.Column, s.Edit.Value)
		return err
	}
	return errors.New("empty step")
}

// Replay initializes a session with t and applies every step in order. It
// stops at the first failing step.
func (r *Recipe) Replay(t *table.Table) (*core.DatasetSession, error) {
	ds := core.NewDatasetSession()
	if err := ds.Initialize(t); err != nil {
		return nil, err
	}
	for i, s := range r.Steps {
		if err := s.apply(ds); err != nil {
			return ds, fmt.Errorf("step %d (%s): %w", i+1, s.name(), err)
		}
	}
	return ds, nil
}

func (a *app) runCommand() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "run <recipe.yaml>",
		Short: "Replay a recipe of filters, edits and undos and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := LoadRecipe(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("input") {
				r.Input = input
			}
			if f.Changed("output") {
				r.Output = output
			}
			if r.Input == "" {
				return errors.New("recipe has no input (set input: or --input)")
			}

			num, cat := a.recipeStrategies(cmd, r)
			t, err := a.loadDataset(cmd, r.Input, num, cat)
			if err != nil {
				return err
			}

			ds, err := r.Replay(t)
			if err != nil {
				return err
			}
			a.logger.Debug("recipe replayed", "recipe", args[0], "steps", len(r.Steps))

			if r.Output == "" || r.Output == "-" {
				return table.WriteCSV(cmd.OutOrStdout(), ds.Current())
			}
			if err := writeCSVFile(r.Output, ds.Current()); err != nil {
				return err
			}

			history := ds.History()
			return a.render(cmd.OutOrStdout(), history, func() ([]string, [][]string) {
				rows := make([][]string, len(history))
				for i, h := range history {
					cur := ""
					if h.Current {
						cur = "*"
					}
					rows[i] = []string{strconv.Itoa(h.Index), h.Action, strconv.Itoa(h.Rows), strconv.Itoa(h.Columns), cur}
				}
				return []string{"#", "action", "rows", "columns", "current"}, rows
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "override the recipe's input CSV")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override the recipe's output CSV ('-' for stdout)")
	return cmd
}

// recipeStrategies picks missing-value strategies: explicit flags first,
// then the recipe, then settings.
func (a *app) recipeStrategies(cmd *cobra.Command, r *Recipe) (core.NumericStrategy, core.CategoricalStrategy) {
	num, cat := a.settings.MissingNumeric, a.settings.MissingCategorical
	f := cmd.Flags()
	if r.Missing.Numeric != "" && !f.Changed("missing-numeric") {
		num = r.Missing.Numeric
	}
	if r.Missing.Categorical != "" && !f.Changed("missing-categorical") {
		cat = r.Missing.Categorical
	}
	return core.NumericStrategy(num), core.CategoricalStrategy(cat)
}

func writeCSVFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
