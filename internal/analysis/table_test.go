package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, doc string) *Table {
	t.Helper()
	tbl, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	return tbl
}

func TestParseCSV_InfersKinds(t *testing.T) {
	tbl := parse(t, "age,city,score,active\n30,Rome,1.5,true\n41,Milan,,False\n25,Rome,3,TRUE\n")

	require.Equal(t, 3, tbl.Rows)
	assert.Equal(t, []string{"age", "city", "score", "active"}, tbl.ColumnNames())

	assert.Equal(t, KindNumeric, tbl.Column("age").Kind)
	assert.Equal(t, KindCategorical, tbl.Column("city").Kind)
	assert.Equal(t, KindNumeric, tbl.Column("score").Kind)
	assert.Equal(t, KindBoolean, tbl.Column("active").Kind)

	score := tbl.Column("score")
	assert.Equal(t, []float64{1.5, 3}, score.Floats())
	assert.True(t, math.IsNaN(score.Numbers[1]))
	assert.Equal(t, 2, score.Count())

	assert.Equal(t, []string{"True", "False", "True"}, tbl.Column("active").Values())
}

func TestParseCSV_PartitionsPreserveOrder(t *testing.T) {
	tbl := parse(t, "b,x,a,y,flag\n1,p,2,q,true\n3,r,4,s,false\n")

	var numeric, categorical []string
	for _, c := range tbl.NumericColumns() {
		numeric = append(numeric, c.Name)
	}
	for _, c := range tbl.CategoricalColumns() {
		categorical = append(categorical, c.Name)
	}
	assert.Equal(t, []string{"b", "a"}, numeric)
	assert.Equal(t, []string{"x", "y"}, categorical)
}

func TestParseCSV_MissingValues(t *testing.T) {
	tbl := parse(t, "v,w\n1,NA\nnull,x\n3,\n")

	v := tbl.Column("v")
	assert.Equal(t, KindNumeric, v.Kind)
	assert.Equal(t, []bool{false, true, false}, v.Missing)

	w := tbl.Column("w")
	assert.Equal(t, KindCategorical, w.Kind)
	assert.Equal(t, []string{"x"}, w.Values())
}

func TestParseCSV_BooleanWithMissingIsCategorical(t *testing.T) {
	tbl := parse(t, "flag,n\ntrue,1\nNA,2\nfalse,3\n")
	assert.Equal(t, KindCategorical, tbl.Column("flag").Kind)
}

func TestParseCSV_MixedValuesAreCategorical(t *testing.T) {
	tbl := parse(t, "code\n1\n2\nA3\n0x10\n")
	assert.Equal(t, KindCategorical, tbl.Column("code").Kind)

	tbl = parse(t, "v\ninf\n1\n")
	assert.Equal(t, KindCategorical, tbl.Column("v").Kind)
}

func TestParseCSV_HeaderNames(t *testing.T) {
	tbl := parse(t, "\ufeffa,,a,a,b\n1,2,3,4,5\n")
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "a.2", "b"}, tbl.ColumnNames())
}

func TestParseCSV_ShortRecordsArePadded(t *testing.T) {
	tbl := parse(t, "a,b,c\n1,2,3\n4\n")
	require.Equal(t, 2, tbl.Rows)
	assert.Equal(t, []bool{false, true}, tbl.Column("b").Missing)
	assert.Equal(t, []bool{false, true}, tbl.Column("c").Missing)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	tbl := parse(t, "a,b\n")
	assert.Equal(t, 0, tbl.Rows)
	assert.Equal(t, KindCategorical, tbl.Column("a").Kind)
	assert.Empty(t, tbl.NumericColumns())
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"empty", "", "no columns to parse from file"},
		{"too many fields", "a,b\n1,2\n3,4,5\n", "line 3: expected 2 fields, saw 3"},
		{"bad quote", "a,b\n1,\"unterminated\n", "extraneous or missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tc.doc))
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "uploads/data.csv", []byte("x,y\n1,2\n"), 0o644))

	tbl, err := ReadFile(fs, "uploads/data.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Rows)

	_, err = ReadFile(fs, "uploads/missing.csv")
	require.Error(t, err)
	var perr *ParseError
	assert.False(t, errors.As(err, &perr))
}

func TestParseCSV_AllMissingColumnIsNumeric(t *testing.T) {
	tbl := parse(t, "notes,age,city\n,30,Rome\nNA,41,Milan\n,25,Rome\n")

	notes := tbl.Column("notes")
	assert.Equal(t, KindNumeric, notes.Kind)
	assert.Empty(t, notes.Floats())
	assert.Equal(t, []string{"notes", "age"}, names(tbl.NumericColumns()))
	assert.Equal(t, []string{"city"}, names(tbl.CategoricalColumns()))
}

func names(cols []*Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
