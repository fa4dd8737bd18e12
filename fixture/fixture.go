// Package fixture reads the files a verification run depends on: the
// coefficient table, the input vectors and the power-on-reset specification.
//
// All files are read through an afero.Fs. A missing or malformed file is a
// collaborator failure and is returned as an error; the scenario that needed
// it reports ERROR while the others carry on.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/spf13/afero"
)

var (
	// ErrEmptyFile is returned for a table without data rows.
	ErrEmptyFile = errors.New("file has no data rows")

	// ErrMissingColumn is returned when a table lacks a required header.
	ErrMissingColumn = errors.New("missing column")

	// ErrMalformed is returned for a cell or line that cannot be parsed.
	ErrMalformed = errors.New("malformed entry")
)

// table is a CSV file loaded as string columns.
type table struct {
	path string
	df   *dataframe.DataFrame
	cols map[string]int
}

func loadTable(
	ctx context.Context,
	fs afero.Fs,
	path string,
	columns ...string,
) (*table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	df, err := imports.LoadFromCSV(ctx, f, imports.CSVLoadOptions{
		TrimLeadingSpace: true,
		Comment:          '#',
	})
	if errors.Is(err, dataframe.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if df.NRows() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	t := &table{path: path, df: df, cols: make(map[string]int)}
	for i, name := range df.Names() {
		t.cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, c := range columns {
		if _, ok := t.cols[c]; !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, c)
		}
	}

	return t, nil
}

func (t *table) rows() int {
	return t.df.NRows()
}

func (t *table) cell(row int, column string) string {
	v := t.df.Series[t.cols[column]].Value(row)
	s, _ := v.(string)

	return strings.TrimSpace(s)
}

// malformed names the data row counted from 1. Comment lines are dropped
// by the CSV reader, so the physical line is not known here.
func (t *table) malformed(row int, column, cell string) error {
	return fmt.Errorf("%s data row %d: %w: %s=%q",
		t.path, row+1, ErrMalformed, column, cell)
}
