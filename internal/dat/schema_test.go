package dat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaKey(t *testing.T) {
	a := SchemaKey(Header{"id", "name"})

	assert.Len(t, a, 64)
	assert.Equal(t, a, SchemaKey(Header{"id", "name"}), "deterministic")
	assert.NotEqual(t, a, SchemaKey(Header{"name", "id"}), "order matters")
	assert.NotEqual(t, SchemaKey(Header{"ab", "c"}), SchemaKey(Header{"a", "bc"}))
	assert.NotEqual(t, SchemaKey(Header{"a"}), SchemaKey(Header{"a", ""}))
	assert.Equal(t, a[:12], ShortKey(a))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLine int
		wantOK   bool
	}{
		{
			name:   "all rows match",
			body:   rec("1", "2") + "\n" + rec("3", "4") + "\n",
			wantOK: true,
		},
		{
			name:   "header only",
			body:   "",
			wantOK: true,
		},
		{
			name:     "second row short",
			body:     rec("1", "2") + "\n" + rec("3") + "\n" + rec("5", "6") + "\n",
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := rec("a", "b") + "\n" + tt.body

			tok := NewTokenizer(strings.NewReader(input))
			first, err := tok.Next()
			require.NoError(t, err)
			header := ParseHeader(first)

			err = Validate(tok, header)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			var fce *FieldCountError
			require.ErrorAs(t, err, &fce)
			assert.Equal(t, tt.wantLine, fce.Line)
			assert.Contains(t, fce.Error(), "line 3")

			again := NewTokenizer(strings.NewReader(input))
			_, _ = again.Next()
			assert.False(t, Valid(again, header))
		})
	}
}

func TestWriter_LineEndings(t *testing.T) {
	var crlf, lf strings.Builder

	w := NewWriter(&crlf)
	require.NoError(t, w.Write([]string{"a"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "þaþ\r\n", crlf.String())

	w = NewWriter(&lf)
	w.UseLF = true
	require.NoError(t, w.Write([]string{"a"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "þaþ\n", lf.String())
}
