package dat

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(fields ...string) string {
	return SerializeValues(fields)
}

func drain(t *testing.T, tok *Tokenizer) []string {
	t.Helper()
	var out []string
	for {
		line, err := tok.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, line)
	}
}

func TestTokenizer_LineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "crlf",
			input: rec("a", "b") + "\r\n" + rec("1", "2") + "\r\n",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "lf",
			input: rec("a", "b") + "\n" + rec("1", "2") + "\n",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "cr",
			input: rec("a", "b") + "\r" + rec("1", "2") + "\r",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "no trailing newline",
			input: rec("a", "b") + "\r\n" + rec("1", "2"),
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "blank line between records",
			input: rec("a", "b") + "\n\n" + rec("1", "2") + "\n",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "blank crlf lines between records",
			input: rec("a", "b") + "\r\n\r\n\r\n" + rec("1", "2") + "\r\n",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "trailing blank lines",
			input: rec("a", "b") + "\r\n" + rec("1", "2") + "\r\n\r\n\n",
			want:  []string{rec("a", "b"), rec("1", "2")},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "empty fields",
			input: rec("", "") + "\n" + rec("", "x") + "\n",
			want:  []string{rec("", ""), rec("", "x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drain(t, NewTokenizer(strings.NewReader(tt.input)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizer_QuoteEmbeddedNewline(t *testing.T) {
	input := rec("id", "note") + "\r\n" +
		rec("1", "first\r\nsecond") + "\r\n" +
		rec("2", "one\ntwo\nthree") + "\r\n"

	tok := NewTokenizer(strings.NewReader(input))
	lines := drain(t, tok)
	require.Len(t, lines, 3)
	assert.Equal(t, 3, tok.Line())

	header := ParseHeader(lines[0])
	row, err := ParseLine(lines[1], header)
	require.NoError(t, err)
	note, _ := row.Get("note")
	assert.Equal(t, "first\r\nsecond", note)

	row, err = ParseLine(lines[2], header)
	require.NoError(t, err)
	note, _ = row.Get("note")
	assert.Equal(t, "one\ntwo\nthree", note)
}

func TestTokenizer_QuoteInsideValueIsData(t *testing.T) {
	input := rec("v") + "\n" + rec("aþb") + "\n" + rec("endsþ") + "\n"

	lines := drain(t, NewTokenizer(strings.NewReader(input)))
	require.Len(t, lines, 3)

	header := ParseHeader(lines[0])
	for i, want := range []string{"aþb", "endsþ"} {
		row, err := ParseLine(lines[i+1], header)
		require.NoError(t, err)
		assert.Equal(t, []string{want}, row.Values)
	}
}

func TestTokenizer_NotRestartable(t *testing.T) {
	tok := NewTokenizer(strings.NewReader(rec("a") + "\n"))
	_ = drain(t, tok)

	_, err := tok.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTokenizer_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader(rec("a", "b")+"\nþ1"), iotest.ErrReader(boom))
	tok := NewTokenizer(r)

	line, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, rec("a", "b"), line)

	_, err = tok.Next()
	assert.ErrorIs(t, err, boom)
}

func TestTokenizer_OneByteReads(t *testing.T) {
	input := rec("h1", "h2") + "\r\n" + rec("x\r\ny", "z") + "\r\n"
	lines := drain(t, NewTokenizer(iotest.OneByteReader(strings.NewReader(input))))
	assert.Equal(t, []string{rec("h1", "h2"), rec("x\r\ny", "z")}, lines)
}
