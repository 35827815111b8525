package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datops/internal/dat"
)

func TestParseMapping(t *testing.T) {
	input := strings.Join([]string{
		"# old,new",
		"BegDoc, BEGBATES",
		"",
		"  EndDoc ,ENDBATES",
		`"Last, First",Custodian`,
	}, "\n")

	m, err := ParseMapping(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []MappingPair{
		{Old: "BegDoc", New: "BEGBATES"},
		{Old: "EndDoc", New: "ENDBATES"},
		{Old: "Last, First", New: "Custodian"},
	}, m.Pairs)

	n, ok := m.Lookup("EndDoc")
	assert.True(t, ok)
	assert.Equal(t, "ENDBATES", n)
}

func TestParseMapping_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{"one field", "a,b\nlonely\n", "line 2"},
		{"three fields", "a,b,c\n", "line 1"},
		{"empty new name", "a,b\n\nc,\n", "line 3"},
		{"duplicate old", "a,b\na,c\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapping(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMapping))
			assert.Contains(t, err.Error(), tt.wantLine)
		})
	}
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte("a,x\r\nb,y\r\n"), 0o644))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x", "b": "y"}, m.Map())

	_, err = LoadMapping(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappingCoverage(t *testing.T) {
	h := dat.Header{"a", "b", "c", "d"}
	assert.InDelta(t, 0.5, MappingCoverage(h, map[string]string{"a": "x", "c": "y", "zz": "q"}), 1e-9)
	assert.InDelta(t, 1.0, MappingCoverage(h, map[string]string{"a": "", "b": "", "c": "", "d": ""}), 1e-9)
	assert.Zero(t, MappingCoverage(nil, map[string]string{"a": "x"}))
}
