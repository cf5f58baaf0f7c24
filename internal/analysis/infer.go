package analysis

import (
	"math"
	"strconv"
	"strings"
)

// naValues are the cell contents treated as missing, besides blank cells.
var naValues = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {},
	"None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isMissing(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	_, ok := naValues[s]
	return ok
}

func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || strings.ContainsRune(s, '_') {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseBool(cell string) (bool, bool) {
	switch strings.TrimSpace(cell) {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func normalizeBool(cell string) string {
	b, _ := parseBool(cell)
	if b {
		return "True"
	}
	return "False"
}

// inferColumn sets the column kind and, for numeric columns, the parsed values.
//
// A column is boolean when every cell is a true/false token, numeric when
// every present value parses as a number, and categorical otherwise. A column
// whose cells are all missing is numeric; a column with no rows at all is
// categorical.
func inferColumn(c *Column) {
	present := 0
	allBool, allNum := true, true
	for i, cell := range c.Cells {
		if c.Missing[i] {
			allBool = false
			continue
		}
		present++
		if _, ok := parseBool(cell); !ok {
			allBool = false
		}
		if _, ok := parseNumber(cell); !ok {
			allNum = false
		}
	}

	switch {
	case len(c.Cells) == 0:
		c.Kind = KindCategorical
	case allBool && present > 0:
		c.Kind = KindBoolean
	case allNum:
		c.Kind = KindNumeric
		c.Numbers = make([]float64, len(c.Cells))
		for i, cell := range c.Cells {
			if c.Missing[i] {
				c.Numbers[i] = math.NaN()
				continue
			}
			c.Numbers[i], _ = parseNumber(cell)
		}
	default:
		c.Kind = KindCategorical
	}
}
