// Package tabular writes operation results as CSV, TSV, DAT or XLSX.
//
// Every format registers a Spec at init time. Callers look a format up by
// name, derive the output extension from it, and get back a Writer that takes
// a header followed by rows of string values.
package tabular

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/datops/internal/dat"
)

// Writer receives one header and any number of rows. Close flushes buffered
// output; it does not close the underlying io.Writer.
type Writer interface {
	WriteHeader(h dat.Header) error
	Write(values []string) error
	Close() error
}

// Spec describes an output format.
type Spec struct {
	Name string // flag value, e.g. "csv"
	Ext  string // file extension without dot
	New  func(w io.Writer) Writer
}

var (
	registry   = make(map[string]Spec)
	registryMu sync.RWMutex
)

// Register adds a format. Panics if the name is already taken.
func Register(spec Spec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(spec.Name)
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("format already registered: %s", spec.Name))
	}
	registry[key] = spec
}

// Get returns the format registered under name, case-insensitively.
func Get(name string) (Spec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	spec, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Lookup is Get with an error naming the known formats.
func Lookup(name string) (Spec, error) {
	if spec, ok := Get(name); ok {
		return spec, nil
	}
	return Spec{}, fmt.Errorf("unknown output format %q (want one of %s)", name, strings.Join(Names(), ", "))
}

// Names returns the registered format names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Spec{Name: "csv", Ext: "csv", New: func(w io.Writer) Writer { return NewDelimited(w, ',') }})
	Register(Spec{Name: "tsv", Ext: "tsv", New: func(w io.Writer) Writer { return NewDelimited(w, '\t') }})
	Register(Spec{Name: "dat", Ext: "dat", New: func(w io.Writer) Writer { return &datWriter{w: dat.NewWriter(w)} }})
	Register(Spec{Name: "xlsx", Ext: "xlsx", New: func(w io.Writer) Writer { return NewXLSX(w) }})
}

type datWriter struct {
	w *dat.Writer
}

func (d *datWriter) WriteHeader(h dat.Header) error { return d.w.WriteHeader(h) }
func (d *datWriter) Write(values []string) error    { return d.w.Write(values) }
func (d *datWriter) Close() error                   { return d.w.Flush() }
