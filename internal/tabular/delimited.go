package tabular

import (
	"bufio"
	"io"
	"strings"

	"github.com/JonMunkholm/datops/internal/dat"
)

// Delimited writes comma- or tab-separated text with every field quoted.
// Embedded double quotes are doubled; embedded newlines are kept as-is inside
// the quotes. Records end with CRLF.
type Delimited struct {
	delim byte
	w     *bufio.Writer
	err   error
}

// NewDelimited returns a writer using delim between fields.
func NewDelimited(w io.Writer, delim byte) *Delimited {
	return &Delimited{delim: delim, w: bufio.NewWriter(w)}
}

func (d *Delimited) WriteHeader(h dat.Header) error {
	return d.Write(h)
}

func (d *Delimited) Write(values []string) error {
	if d.err != nil {
		return d.err
	}
	for i, v := range values {
		if i > 0 {
			d.w.WriteByte(d.delim)
		}
		d.w.WriteByte('"')
		if strings.IndexByte(v, '"') >= 0 {
			v = strings.ReplaceAll(v, `"`, `""`)
		}
		d.w.WriteString(v)
		d.w.WriteByte('"')
	}
	_, d.err = d.w.WriteString("\r\n")
	return d.err
}

func (d *Delimited) Close() error {
	if d.err != nil {
		return d.err
	}
	d.err = d.w.Flush()
	return d.err
}
