package core

// mapping.go loads field-name mapping files.
//
// A mapping file has one "oldName,newName" pair per line. Blank lines and lines
// starting with # are ignored, and surrounding whitespace is trimmed. Names
// that contain commas can be double-quoted. The same file format serves both
// replace-header (old → new) and compare (field in A → field in B).

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/datops/internal/dat"
)

// MappingCoverageWarn is the coverage below which Compare warns that a field
// map leaves most of the header unchecked.
const MappingCoverageWarn = 0.7

// MappingPair renames Old to New.
type MappingPair struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Mapping is an ordered list of pairs with a lookup by old name.
type Mapping struct {
	Pairs  []MappingPair
	lookup map[string]string
}

// NewMapping builds a Mapping from pairs. A repeated old name is an error.
func NewMapping(pairs []MappingPair) (Mapping, error) {
	m := Mapping{Pairs: pairs, lookup: make(map[string]string, len(pairs))}
	for i, p := range pairs {
		if p.Old == "" || p.New == "" {
			return Mapping{}, fmt.Errorf("%w: entry %d has an empty name", ErrInvalidMapping, i+1)
		}
		if _, dup := m.lookup[p.Old]; dup {
			return Mapping{}, fmt.Errorf("%w: %q is mapped twice", ErrInvalidMapping, p.Old)
		}
		m.lookup[p.Old] = p.New
	}
	return m, nil
}

// Lookup returns the new name for old.
func (m Mapping) Lookup(old string) (string, bool) {
	n, ok := m.lookup[old]
	return n, ok
}

// Map returns the mapping as old → new.
func (m Mapping) Map() map[string]string {
	out := make(map[string]string, len(m.lookup))
	for k, v := range m.lookup {
		out[k] = v
	}
	return out
}

// Len returns the number of pairs.
func (m Mapping) Len() int { return len(m.Pairs) }

// LoadMapping reads a mapping file from disk.
func LoadMapping(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, err
	}
	defer f.Close()

	m, err := ParseMapping(f)
	if err != nil {
		return Mapping{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMapping reads mapping lines from r.
func ParseMapping(r io.Reader) (Mapping, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var pairs []MappingPair
	seen := make(map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return Mapping{}, fmt.Errorf("%w: line %d: %v", ErrInvalidMapping, pe.Line, pe.Err)
			}
			return Mapping{}, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 2 {
			return Mapping{}, fmt.Errorf("%w: line %d: want old,new, got %d fields", ErrInvalidMapping, line, len(rec))
		}

		old, nu := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if old == "" || nu == "" {
			return Mapping{}, fmt.Errorf("%w: line %d: empty field name", ErrInvalidMapping, line)
		}
		if prev, dup := seen[old]; dup {
			return Mapping{}, fmt.Errorf("%w: line %d: %q already mapped on line %d", ErrInvalidMapping, line, old, prev)
		}
		seen[old] = line
		pairs = append(pairs, MappingPair{Old: old, New: nu})
	}
	return NewMapping(pairs)
}

// MappingCoverage returns the fraction of header fields that have an entry in
// mapping. An empty header has coverage 0.
func MappingCoverage(header dat.Header, mapping map[string]string) float64 {
	if len(header) == 0 {
		return 0
	}

	matched := 0
	for _, name := range header {
		if _, ok := mapping[name]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(header))
}
