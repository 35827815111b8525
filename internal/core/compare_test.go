package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Positional(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id", "x"}, []string{"1", "1"}, []string{"2", "2"})
	b := writeDAT(t, dir, "b.dat", []string{"id", "x"}, []string{"1", "1"}, []string{"2", "3"})

	res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b})
	require.NoError(t, err)

	assert.Equal(t, []DiffRecord{{Row: 3, Field: "x", ValueA: "2", ValueB: "3"}}, res.Diffs)
	assert.Equal(t, 2, res.Compared)
	assert.Equal(t, 2, res.RowsA)
	assert.Equal(t, 2, res.RowsB)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Outputs)
}

func TestCompare_Identical(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id"}, []string{"1"})
	b := writeDAT(t, dir, "b.dat", []string{"id"}, []string{"1"})

	res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b})
	require.NoError(t, err)
	assert.NotNil(t, res.Diffs)
	assert.Empty(t, res.Diffs)
}

func TestCompare_HeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id", "x"}, []string{"1", "1"})
	b := writeDAT(t, dir, "b.dat", []string{"id", "y"}, []string{"1", "2"})

	res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b})
	require.ErrorIs(t, err, ErrHeaderMismatch)
	assert.Nil(t, res)
	assert.Equal(t, "HDR001", MapError(err).Code)
}

func TestCompare_FieldMap(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat",
		[]string{"id", "amount", "note"},
		[]string{"1", "$1,200.00", "x"},
		[]string{"2", "(5)", "y"},
	)
	b := writeDAT(t, dir, "b.dat",
		[]string{"ID", "Total"},
		[]string{"1", "1200"},
		[]string{"2", "5"},
	)

	res, err := NewService().Compare(context.Background(), CompareRequest{
		FileA: a,
		FileB: b,
		Options: CompareOptions{
			FieldMap: map[string]string{"id": "ID", "amount": "Total", "missing": "X"},
			Numeric:  true,
		},
	})
	require.NoError(t, err)

	// (5) is -5
	assert.Equal(t, []DiffRecord{{Row: 3, Field: "amount", ValueA: "(5)", ValueB: "5"}}, res.Diffs)
	assert.InDelta(t, 2.0/3.0, res.Coverage, 0.001)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], `"missing"`)
	assert.Contains(t, res.Warnings[1], "covers 67%")
}

func TestCompare_FieldMapNoUsablePairs(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id"}, []string{"1"})
	b := writeDAT(t, dir, "b.dat", []string{"key"}, []string{"1"})

	_, err := NewService().Compare(context.Background(), CompareRequest{
		FileA:   a,
		FileB:   b,
		Options: CompareOptions{FieldMap: map[string]string{"id": "nope"}},
	})
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestCompare_Normalization(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"name"}, []string{" Alice "}, []string{"BOB"})
	b := writeDAT(t, dir, "b.dat", []string{"name"}, []string{"alice"}, []string{"bob"})

	tests := []struct {
		name  string
		opts  CompareOptions
		diffs int
	}{
		{"exact", CompareOptions{}, 2},
		{"trim only", CompareOptions{TrimSpaces: true}, 2},
		{"case only", CompareOptions{CaseInsensitive: true}, 1},
		{"trim and case", CompareOptions{TrimSpaces: true, CaseInsensitive: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b, Options: tt.opts})
			require.NoError(t, err)
			assert.Len(t, res.Diffs, tt.diffs)
		})
	}
}

func TestCompare_UnequalLengths(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"v"}, []string{"1"}, []string{"2"}, []string{"3"})
	b := writeDAT(t, dir, "b.dat", []string{"v"}, []string{"1"})

	res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b})
	require.NoError(t, err)

	assert.Empty(t, res.Diffs)
	assert.Equal(t, 1, res.Compared)
	assert.Equal(t, 3, res.RowsA)
	assert.Equal(t, 1, res.RowsB)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "row counts differ")
}

func TestCompare_MalformedRowKeepsPosition(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id", "v"}, []string{"1", "a"}, []string{"2"}, []string{"3", "c"})
	b := writeDAT(t, dir, "b.dat", []string{"id", "v"}, []string{"1", "a"}, []string{"2", "b"}, []string{"3", "x"})

	res, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: b})
	require.NoError(t, err)

	assert.Equal(t, []RowPair{{LineA: 3, LineB: 3}}, res.SkippedRows)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []DiffRecord{{Row: 4, Field: "v", ValueA: "c", ValueB: "x"}}, res.Diffs)
}

func TestCompare_Report(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports")
	a := writeDAT(t, dir, "a.dat", []string{"id", "x"}, []string{"1", "1"}, []string{"2", "2"})
	b := writeDAT(t, dir, "b.dat", []string{"id", "x"}, []string{"1", "1"}, []string{"2", "3"})

	res, err := NewService().Compare(context.Background(), CompareRequest{
		FileA:  a,
		FileB:  b,
		Report: &OutputOptions{Dir: out},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "a_diff.csv"), res.Report)
	assert.Equal(t, []string{res.Report}, res.Outputs)
	assert.Equal(t, [][]string{
		{"Row", "Field", "ValueA", "ValueB"},
		{"3", "x", "2", "3"},
	}, readCSV(t, res.Report))
}

func TestCompare_MissingInput(t *testing.T) {
	dir := t.TempDir()
	a := writeDAT(t, dir, "a.dat", []string{"id"}, []string{"1"})

	_, err := NewService().Compare(context.Background(), CompareRequest{FileA: a, FileB: filepath.Join(dir, "nope.dat")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
