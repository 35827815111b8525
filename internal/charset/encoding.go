// Package charset resolves and applies the character encodings DAT files are
// delivered in.
//
// Supported encodings are UTF-8 (with or without signature), UTF-16 in either
// byte order, and Windows-1252. Decoding is done by golang.org/x/text; this
// package only names the encodings, guesses which one a file uses, and wires
// the matching decoder onto a byte stream.
package charset

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding is the canonical name of a supported character encoding.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	UTF8BOM     Encoding = "utf-8-sig"
	UTF16LE     Encoding = "utf-16le"
	UTF16BE     Encoding = "utf-16be"
	Windows1252 Encoding = "windows-1252"
)

// ErrUnknownEncoding is returned by Parse for names it does not recognise.
var ErrUnknownEncoding = errors.New("unknown encoding")

var aliases = map[string]Encoding{
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"utf-8-sig":    UTF8BOM,
	"utf8-sig":     UTF8BOM,
	"utf-8-bom":    UTF8BOM,
	"utf-16le":     UTF16LE,
	"utf16le":      UTF16LE,
	"utf-16-le":    UTF16LE,
	"utf-16be":     UTF16BE,
	"utf16be":      UTF16BE,
	"utf-16-be":    UTF16BE,
	"windows-1252": Windows1252,
	"cp1252":       Windows1252,
	"win1252":      Windows1252,
}

// Parse maps a user-supplied encoding name onto an Encoding. Matching is
// case-insensitive and accepts a few common spellings.
func Parse(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := aliases[key]; ok {
		return enc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// Names lists the canonical encoding names.
func Names() []string {
	return []string{string(UTF8), string(UTF8BOM), string(UTF16LE), string(UTF16BE), string(Windows1252)}
}

func (e Encoding) String() string { return string(e) }

// codec returns the x/text encoding for e. Unicode decoders honour a leading
// BOM if one is present and drop it from the output.
func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case UTF8, UTF8BOM:
		return unicode.UTF8BOM, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case Windows1252:
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(e))
}

// NewReader returns a reader that yields r decoded to UTF-8.
// Invalid input sequences decode to U+FFFD.
func NewReader(r io.Reader, e Encoding) (io.Reader, error) {
	enc, err := e.codec()
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
