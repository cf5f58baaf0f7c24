// Package analysis parses uploaded CSV files into typed tables and computes
// descriptive statistics over them.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	default:
		return "categorical"
	}
}

// Column is one named column of a Table.
type Column struct {
	Name    string
	Kind    Kind
	Cells   []string  // raw cell text, one per row
	Missing []bool    // true where the cell holds no value
	Numbers []float64 // parsed values for numeric columns, NaN where missing
}

// Count returns the number of present values.
func (c *Column) Count() int {
	n := 0
	for _, m := range c.Missing {
		if !m {
			n++
		}
	}
	return n
}

// Values returns the present values as text. Boolean values are normalized to
// True/False.
func (c *Column) Values() []string {
	out := make([]string, 0, len(c.Cells))
	for i, v := range c.Cells {
		if c.Missing[i] {
			continue
		}
		if c.Kind == KindBoolean {
			v = normalizeBool(v)
		}
		out = append(out, v)
	}
	return out
}

// Floats returns the present values of a numeric column.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is a parsed CSV file.
type Table struct {
	Columns []*Column
	Rows    int
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NumericColumns returns the numeric columns in file order.
func (t *Table) NumericColumns() []*Column {
	return t.columnsOfKind(KindNumeric)
}

// CategoricalColumns returns the categorical columns in file order. Boolean
// columns are in neither partition.
func (t *Table) CategoricalColumns() []*Column {
	return t.columnsOfKind(KindCategorical)
}

func (t *Table) columnsOfKind(k Kind) []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// ParseError reports a malformed CSV file. Its message is meant to be shown to
// the uploader.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoColumns = errors.New("no columns to parse from file")

// ReadFile parses the CSV file at path on fs.
func ReadFile(fs afero.Fs, path string) (*Table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads a CSV document whose first record is the header.
// Records shorter than the header are padded with missing values; longer ones
// are rejected.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errNoColumns}
		}
		return nil, &ParseError{Err: err}
	}
	names := headerNames(header)

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		if len(rec) > len(names) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, saw %d", len(names), len(rec)),
			}
		}
		records = append(records, rec)
	}

	t := &Table{Rows: len(records), Columns: make([]*Column, len(names))}
	for j, name := range names {
		col := &Column{
			Name:    name,
			Cells:   make([]string, len(records)),
			Missing: make([]bool, len(records)),
		}
		for i, rec := range records {
			if j < len(rec) {
				col.Cells[i] = rec[j]
			}
			col.Missing[i] = isMissing(col.Cells[i])
		}
		inferColumn(col)
		t.Columns[j] = col
	}
	return t, nil
}

// headerNames fills blank names and de-duplicates repeated ones with .1, .2
// suffixes.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	dups := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			dups[h]++
			name = h + "." + strconv.Itoa(dups[h])
		}
		used[name] = true
		names[i] = name
	}
	return names
}
