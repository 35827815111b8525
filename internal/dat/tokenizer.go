package dat

// tokenizer.go implements the quote-aware record splitter.
//
// The tokenizer is pull-based: each call to Next advances the automaton only as
// far as needed to produce one logical line. It holds a small lookahead buffer
// so it can decide whether a quote closes a quoted span without consuming the
// characters that follow it.

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Tokenizer splits a decoded character stream into logical lines.
//
// A Tokenizer is single-use: once Next has returned io.EOF it keeps returning
// io.EOF. Reading the same input again requires a new Tokenizer over a freshly
// opened reader.
type Tokenizer struct {
	r io.RuneReader

	ahead  []rune // peeked but not yet consumed
	srcErr error  // sticky error from the underlying reader

	buf     strings.Builder
	inQuote bool
	lines   int
	done    bool
}

// NewTokenizer returns a Tokenizer reading from r. If r does not implement
// io.RuneReader it is wrapped in a bufio.Reader.
func NewTokenizer(r io.Reader) *Tokenizer {
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReaderSize(r, 64*1024)
	}
	return &Tokenizer{r: rr}
}

// Line returns the 1-based number of the logical line most recently returned
// by Next, or 0 before the first call.
func (t *Tokenizer) Line() int {
	return t.lines
}

// Next returns the next logical line with trailing CR/LF removed. Blank lines
// between records are skipped. At the end of input it returns io.EOF; any other
// error comes from the underlying reader.
func (t *Tokenizer) Next() (string, error) {
	if t.done {
		return "", io.EOF
	}

	for {
		c, err := t.read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.done = true
				return "", err
			}
			t.done = true
			if line, ok := t.flush(); ok {
				return line, nil
			}
			return "", io.EOF
		}

		switch {
		case c == Quote && !t.inQuote:
			t.inQuote = true
			t.buf.WriteRune(c)

		case c == Quote && t.closesQuote():
			t.inQuote = false
			t.buf.WriteRune(c)

		case (c == '\r' || c == '\n') && !t.inQuote && !t.separatorFollows():
			if line, ok := t.flush(); ok {
				return line, nil
			}

		default:
			t.buf.WriteRune(c)
		}
	}
}

// closesQuote reports whether a quote read while inside a quoted span ends the
// span: it must be followed by SEPARATOR+QUOTE, or by a run of line breaks
// (blank lines included) and then the QUOTE that opens the next record or the
// end of input.
func (t *Tokenizer) closesQuote() bool {
	if t.separatorFollows() {
		return true
	}
	i := 0
	for {
		c, ok := t.peek(i)
		if !ok {
			return i > 0
		}
		if c != '\r' && c != '\n' {
			return i > 0 && c == Quote
		}
		i++
	}
}

// separatorFollows reports whether the next two runes are SEPARATOR+QUOTE.
func (t *Tokenizer) separatorFollows() bool {
	a, ok := t.peek(0)
	if !ok || a != Separator {
		return false
	}
	b, ok := t.peek(1)
	return ok && b == Quote
}

// flush emits the buffered line. Lines that are empty once CR/LF is trimmed
// are dropped and the quote state is reset for the next record.
func (t *Tokenizer) flush() (string, bool) {
	line := strings.TrimRight(t.buf.String(), "\r\n")
	t.buf.Reset()
	t.inQuote = false
	if line == "" {
		return "", false
	}
	t.lines++
	return line, true
}

// read consumes one rune, draining the lookahead buffer first.
func (t *Tokenizer) read() (rune, error) {
	if len(t.ahead) > 0 {
		c := t.ahead[0]
		n := copy(t.ahead, t.ahead[1:])
		t.ahead = t.ahead[:n]
		return c, nil
	}
	if t.srcErr != nil {
		return 0, t.srcErr
	}
	c, _, err := t.r.ReadRune()
	if err != nil {
		t.srcErr = err
		return 0, err
	}
	return c, nil
}

// peek returns the rune i positions ahead without consuming it. ok is false
// when the input ends (or fails) before that position; the error surfaces on
// the next read.
func (t *Tokenizer) peek(i int) (rune, bool) {
	for len(t.ahead) <= i {
		if t.srcErr != nil {
			return 0, false
		}
		c, _, err := t.r.ReadRune()
		if err != nil {
			t.srcErr = err
			return 0, false
		}
		t.ahead = append(t.ahead, c)
	}
	return t.ahead[i], true
}
