package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/table"
)

// loadDataset reads the CSV at path ("-" for stdin) and resolves its missing
// cells with the given strategies.
func (a *app) loadDataset(cmd *cobra.Command, path string, num core.NumericStrategy, cat core.CategoricalStrategy) (*table.Table, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	t, rep, err := table.Load(r, table.LoadOptions{
		Delimiter: a.settings.delimiter(),
		MaxRows:   a.settings.MaxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	a.logger.Debug("dataset loaded",
		"file", path,
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"missing", rep.TotalMissing,
	)
	if rep.TotalMissing == 0 {
		return t, nil
	}

	resolved, err := core.ResolveMissing(t, rep, num, cat)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("missing values resolved",
		"numeric", num,
		"categorical", cat,
		"rows", resolved.NumRows(),
	)
	return resolved, nil
}

// load is loadDataset with the strategies from settings.
func (a *app) load(cmd *cobra.Command, path string) (*table.Table, error) {
	return a.loadDataset(cmd, path,
		core.NumericStrategy(a.settings.MissingNumeric),
		core.CategoricalStrategy(a.settings.MissingCategorical),
	)
}
