package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datops/internal/dat"
)

func TestDelimited(t *testing.T) {
	tests := []struct {
		name  string
		delim byte
		want  string
	}{
		{"csv", ',', "\"id\",\"note\"\r\n\"1\",\"say \"\"hi\"\"\"\r\n\"2\",\"a\nb\"\r\n"},
		{"tsv", '\t', "\"id\"\t\"note\"\r\n\"1\"\t\"say \"\"hi\"\"\"\r\n\"2\"\t\"a\nb\"\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewDelimited(&buf, tt.delim)
			require.NoError(t, w.WriteHeader(dat.Header{"id", "note"}))
			require.NoError(t, w.Write([]string{"1", `say "hi"`}))
			require.NoError(t, w.Write([]string{"2", "a\nb"}))
			require.NoError(t, w.Close())
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "dat", "tsv", "xlsx"}, Names())

	spec, err := Lookup("TSV")
	require.NoError(t, err)
	assert.Equal(t, "tsv", spec.Ext)

	_, err = Lookup("json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, dat, tsv, xlsx")

	assert.Panics(t, func() { Register(Spec{Name: "csv"}) })
}

func TestDatFormat(t *testing.T) {
	spec, ok := Get("dat")
	require.True(t, ok)

	var buf bytes.Buffer
	w := spec.New(&buf)
	require.NoError(t, w.WriteHeader(dat.Header{"a", "b"}))
	require.NoError(t, w.Write([]string{"1", ""}))
	require.NoError(t, w.Close())
	assert.Equal(t, "þaþ\x14þbþ\r\nþ1þ\x14þþ\r\n", buf.String())
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	spec, _ := Get("xlsx")

	out, err := Create(path, spec, false)
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader(dat.Header{"id", "name"}))
	require.NoError(t, out.Write([]string{"1", "þorn"}))
	require.NoError(t, out.Close())
	assert.Equal(t, 1, out.Rows)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "name"}, {"1", "þorn"}}, rows)
}

func TestCreate_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))
	spec, _ := Get("csv")

	_, err := Create(path, spec, false)
	assert.ErrorIs(t, err, ErrOutputExists)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "keep", string(data))

	out, err := Create(path, spec, true)
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader(dat.Header{"x"}))
	require.NoError(t, out.Close())
	data, _ = os.ReadFile(path)
	assert.True(t, strings.HasPrefix(string(data), `"x"`))
}

func TestFile_Abort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	spec, _ := Get("tsv")

	out, err := Create(path, spec, false)
	require.NoError(t, err)
	out.Abort()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
