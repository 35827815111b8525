package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datops/internal/core"
)

func writeDAT(t *testing.T, path string, rows ...[]string) {
	t.Helper()
	var b strings.Builder
	for _, r := range rows {
		for i, v := range r {
			if i > 0 {
				b.WriteString("\x14")
			}
			b.WriteString("þ" + v + "þ")
		}
		b.WriteString("\r\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// datops runs the CLI with a clean environment and returns exit code, stdout
// and stderr.
func datops(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("DATOPS_OUTPUT_DIR", "")
	t.Setenv("DATOPS_OUTPUT_FORMAT", "")
	t.Setenv("DATOPS_ENCODING", "")

	var stdout, stderr bytes.Buffer
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.dat")
	writeDAT(t, in, []string{"id", "name"}, []string{"1", "a"})

	code, stdout, stderr := datops(t, "convert", "--format", "tsv", in)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "export_converted.tsv")

	data, err := os.ReadFile(filepath.Join(dir, "export_converted.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "\"id\"\t\"name\"\r\n\"1\"\t\"a\"\r\n", string(data))
}

func TestCompare_JSON(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dat")
	b := filepath.Join(dir, "b.dat")
	writeDAT(t, a, []string{"id", "amt"}, []string{"1", "1.50"})
	writeDAT(t, b, []string{"id", "amt"}, []string{"1", "1.5"})

	code, stdout, _ := datops(t, "--json", "compare", a, b)
	require.Equal(t, exitOK, code)

	var res core.CompareResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	require.Len(t, res.Diffs, 1)
	assert.Equal(t, core.DiffRecord{Row: 2, Field: "amt", ValueA: "1.50", ValueB: "1.5"}, res.Diffs[0])

	code, stdout, _ = datops(t, "compare", "--numeric", a, b)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "0 differences in 1 compared rows")
}

func TestReplaceHeader(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.dat")
	mapping := filepath.Join(dir, "map.csv")
	writeDAT(t, in, []string{"id", "name"}, []string{"1", "a"})
	require.NoError(t, os.WriteFile(mapping, []byte("name,full_name\n"), 0o644))

	code, stdout, stderr := datops(t, "replace-header", in, "--map", mapping)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "new header: id, full_name")

	_, err := os.Stat(filepath.Join(dir, "export_header.dat"))
	assert.NoError(t, err)
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.dat")
	writeDAT(t, in, []string{"id"}, []string{"1"})

	tests := []struct {
		name string
		args []string
		want int
		msg  string
	}{
		{"unknown command", []string{"frobnicate"}, exitUsage, "unknown command"},
		{"missing argument", []string{"compare", in}, exitUsage, "accepts 2 arg"},
		{"unknown flag", []string{"inspect", "--bogus", in}, exitUsage, "unknown flag"},
		{"delete without field", []string{"delete", in, "--value", "1"}, exitUsage, "--field is required"},
		{"bad format", []string{"convert", "--format", "json", in}, exitUsage, "unknown output format"},
		{"missing file", []string{"inspect", filepath.Join(dir, "nope.dat")}, exitFailed, "FILE001"},
		{"field not found", []string{"delete", in, "--field", "x", "--value", "1"}, exitFailed, "OPS001"},
		{"history without database", []string{"history"}, exitFailed, "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := datops(t, tt.args...)
			assert.Equal(t, tt.want, code)
			assert.Contains(t, stderr, tt.msg)
		})
	}
}

func TestDeleteAndSelect(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.dat")
	writeDAT(t, in, []string{"id", "state", "name"},
		[]string{"1", "CA", "a"},
		[]string{"2", "NY", "b"},
		[]string{"3", "CA", "c"},
	)

	code, stdout, stderr := datops(t, "delete", in, "--field", "state", "--value", "CA,TX")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "kept 1 rows")
	assert.Contains(t, stdout, "removed 2 rows")
	assert.Contains(t, stdout, "warning: values not found")

	code, stdout, stderr = datops(t, "select", in, "--fields", "name,id,zip")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "selected id, name")
	assert.Contains(t, stdout, "zip")
}
