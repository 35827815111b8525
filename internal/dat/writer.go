package dat

import (
	"bufio"
	"io"
)

// Writer writes DAT records. Records end with CRLF unless UseLF is set.
type Writer struct {
	UseLF bool

	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer that buffers output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header record.
func (w *Writer) WriteHeader(h Header) error {
	return w.Write(h)
}

// Write writes one record. Values are written verbatim; the format has no
// escape mechanism.
func (w *Writer) Write(values []string) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.w.WriteString(SerializeValues(values)); err != nil {
		w.err = err
		return err
	}
	eol := "\r\n"
	if w.UseLF {
		eol = "\n"
	}
	_, w.err = w.w.WriteString(eol)
	return w.err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Error reports any error from a previous Write or Flush.
func (w *Writer) Error() error {
	return w.err
}
