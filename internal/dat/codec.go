package dat

import (
	"slices"
	"strings"
)

const (
	// Quote encloses every field.
	Quote = 'þ'
	// Separator sits between the closing and opening quotes of adjacent fields.
	Separator = '\u0014'
)

// Boundary is the three-character sequence that separates two fields.
const Boundary = string(Quote) + string(Separator) + string(Quote)

const quoteStr = string(Quote)

// Header holds the ordered field names taken from the first record of a file.
// Names are unique by position, not by value.
type Header []string

// Index returns the position of the first field called name, or -1.
func (h Header) Index(name string) int {
	return slices.Index(h, name)
}

// Has reports whether name is one of the header fields.
func (h Header) Has(name string) bool {
	return h.Index(name) >= 0
}

// Equal reports whether both headers list the same names in the same order.
func (h Header) Equal(o Header) bool {
	return slices.Equal(h, o)
}

// Clone returns a copy that does not share storage with h.
func (h Header) Clone() Header {
	return slices.Clone(h)
}

// Project returns the positions of the header fields whose names appear in
// want, in header order. Duplicate header names are each selected.
func (h Header) Project(want []string) []int {
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	var idx []int
	for i, name := range h {
		if _, ok := set[name]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Row is a record aligned to a header: Values[i] belongs to Header[i].
type Row struct {
	Header Header
	Values []string
}

// Get returns the value of the first field called name.
func (r Row) Get(name string) (string, bool) {
	i := r.Header.Index(name)
	if i < 0 || i >= len(r.Values) {
		return "", false
	}
	return r.Values[i], true
}

// Map returns the row as name → value. When a header repeats a name the first
// occurrence wins.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Values))
	for i, name := range r.Header {
		if i >= len(r.Values) {
			break
		}
		if _, dup := m[name]; !dup {
			m[name] = r.Values[i]
		}
	}
	return m
}

// StripQuote removes at most one leading and one trailing QUOTE from s.
// A string with no enclosing quote is returned unchanged; nested quotes lose
// only their outer layer.
func StripQuote(s string) string {
	s = strings.TrimPrefix(s, quoteStr)
	return strings.TrimSuffix(s, quoteStr)
}

// SplitLine splits a logical line into its unquoted field values. The boundary
// already consumes the quotes between fields, so only the outer quote of the
// first and last piece is stripped; a value may itself begin or end with QUOTE.
func SplitLine(line string) []string {
	pieces := strings.Split(line, Boundary)
	last := len(pieces) - 1
	pieces[0] = strings.TrimPrefix(pieces[0], quoteStr)
	pieces[last] = strings.TrimSuffix(pieces[last], quoteStr)
	return pieces
}

// ParseHeader splits the first logical line of a file into field names.
// No count check is possible at this point.
func ParseHeader(line string) Header {
	return Header(SplitLine(line))
}

// ParseLine splits line and aligns it to header. A record with a different
// number of fields than the header yields a *FieldCountError; the caller is
// expected to set Line when it knows the record position.
func ParseLine(line string, header Header) (Row, error) {
	values := SplitLine(line)
	if len(values) != len(header) {
		return Row{}, &FieldCountError{
			Expected: len(header),
			Actual:   len(values),
			Raw:      line,
		}
	}
	return Row{Header: header, Values: values}, nil
}

// SerializeValues joins values with the field boundary and wraps the result
// in a single pair of quotes.
func SerializeValues(values []string) string {
	var b strings.Builder
	n := 2
	for _, v := range values {
		n += len(v) + len(Boundary)
	}
	b.Grow(n)
	b.WriteString(quoteStr)
	for i, v := range values {
		if i > 0 {
			b.WriteString(Boundary)
		}
		b.WriteString(v)
	}
	b.WriteString(quoteStr)
	return b.String()
}

// SerializeRow renders row in header order. Fields the row does not carry are
// written as empty strings. When the row is already aligned to header its
// values are used positionally, which keeps repeated names intact.
func SerializeRow(row Row, header Header) string {
	return SerializeValues(Align(row, header))
}

// Align returns row's values laid out in header order.
func Align(row Row, header Header) []string {
	if len(row.Values) == len(header) && row.Header.Equal(header) {
		return row.Values
	}
	out := make([]string, len(header))
	for i, name := range header {
		out[i], _ = row.Get(name)
	}
	return out
}
