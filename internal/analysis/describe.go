package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Statistic row labels, in display order.
const (
	StatCount  = "count"
	StatUnique = "unique"
	StatTop    = "top"
	StatFreq   = "freq"
	StatMean   = "mean"
	StatStd    = "std"
	StatMin    = "min"
	StatP25    = "25%"
	StatP50    = "50%"
	StatP75    = "75%"
	StatMax    = "max"
)

// Cell is one entry of a Summary. Missing cells are shown as NaN.
type Cell struct {
	Text    string
	Missing bool
}

// SummaryRow holds one statistic for every column.
type SummaryRow struct {
	Stat  string
	Cells []Cell
}

// Summary is the descriptive-statistics table of a Table: one row per
// statistic, one column per table column.
type Summary struct {
	Columns []string
	Rows    []SummaryRow
}

// Value returns the cell for stat and column; ok is false when the row or the
// column does not exist or the cell is missing.
func (s *Summary) Value(stat, column string) (string, bool) {
	col := -1
	for i, c := range s.Columns {
		if c == column {
			col = i
			break
		}
	}
	if col < 0 {
		return "", false
	}
	for _, r := range s.Rows {
		if r.Stat == stat {
			c := r.Cells[col]
			return c.Text, !c.Missing
		}
	}
	return "", false
}

// Stats returns the row labels in order.
func (s *Summary) Stats() []string {
	out := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Stat
	}
	return out
}

// Describe summarizes every column of t. Numeric columns contribute count,
// mean, std, min, quartiles and max; categorical and boolean columns
// contribute count, unique, top and freq. Rows no column contributes to are
// left out.
func Describe(t *Table) *Summary {
	hasNum, hasCat := false, false
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			hasNum = true
		} else {
			hasCat = true
		}
	}

	stats := []string{StatCount}
	if hasCat {
		stats = append(stats, StatUnique, StatTop, StatFreq)
	}
	if hasNum {
		stats = append(stats, StatMean, StatStd, StatMin, StatP25, StatP50, StatP75, StatMax)
	}

	s := &Summary{Columns: t.ColumnNames(), Rows: make([]SummaryRow, len(stats))}
	for i, st := range stats {
		s.Rows[i] = SummaryRow{Stat: st, Cells: make([]Cell, len(t.Columns))}
	}

	for j, c := range t.Columns {
		var values map[string]Cell
		if c.Kind == KindNumeric {
			values = describeNumeric(c)
		} else {
			values = describeCategorical(c)
		}
		for i := range s.Rows {
			cell, ok := values[s.Rows[i].Stat]
			if !ok {
				cell = Cell{Text: "NaN", Missing: true}
			}
			s.Rows[i].Cells[j] = cell
		}
	}
	return s
}

func describeNumeric(c *Column) map[string]Cell {
	xs := c.Floats()
	m := computeMoments(xs)
	if m.n == 0 {
		m.mean, m.min, m.max = math.NaN(), math.NaN(), math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	return map[string]Cell{
		StatCount: numberCell(float64(m.n)),
		StatMean:  numberCell(m.mean),
		StatStd:   numberCell(m.std()),
		StatMin:   numberCell(m.min),
		StatP25:   numberCell(quantile(sorted, 0.25)),
		StatP50:   numberCell(quantile(sorted, 0.50)),
		StatP75:   numberCell(quantile(sorted, 0.75)),
		StatMax:   numberCell(m.max),
	}
}

func describeCategorical(c *Column) map[string]Cell {
	counts := TopValues(c, 0)
	out := map[string]Cell{
		StatCount:  numberCell(float64(c.Count())),
		StatUnique: numberCell(float64(len(counts))),
	}
	if len(counts) > 0 {
		out[StatTop] = Cell{Text: counts[0].Value}
		out[StatFreq] = numberCell(float64(counts[0].Count))
	}
	return out
}

func numberCell(v float64) Cell {
	if math.IsNaN(v) {
		return Cell{Text: "NaN", Missing: true}
	}
	return Cell{Text: FormatNumber(v)}
}

// FormatNumber renders v with at most six decimals and no trailing zeros.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
