package dat

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

// LineSource yields logical lines one at a time. *Tokenizer satisfies it.
type LineSource interface {
	Next() (string, error)
	Line() int
}

// SchemaKey returns a hex SHA-256 digest of the header's ordered names. Names
// are NUL-terminated before hashing so that no two distinct headers share a key.
func SchemaKey(h Header) string {
	sum := sha256.New()
	for _, name := range h {
		sum.Write([]byte(name))
		sum.Write([]byte{0})
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// ShortKey returns the first 12 hex characters of key, for file names and logs.
func ShortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

// Validate drains lines and checks that every record has len(header) fields.
// It stops at the first mismatch and returns it as a *FieldCountError carrying
// the logical line number. Read errors are returned as-is.
func Validate(lines LineSource, header Header) error {
	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n := len(SplitLine(line)); n != len(header) {
			return &FieldCountError{
				Line:     lines.Line(),
				Expected: len(header),
				Actual:   n,
				Raw:      line,
			}
		}
	}
}

// Valid is Validate reduced to a yes/no answer.
func Valid(lines LineSource, header Header) bool {
	return Validate(lines, header) == nil
}
