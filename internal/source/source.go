// Package source opens DAT files for reading.
//
// A Source names a file and the encoding it is read with. Every call to Open
// returns an independent Pass with its own file handle, decompressor, decoder
// and tokenizer, so an operation that needs two passes over a file simply
// opens it twice. Nothing is shared between passes.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/dat"
)

// ErrEmptyFile is returned by Pass.Header when a file holds no records.
var ErrEmptyFile = errors.New("file has no header record")

// compressed maps a file suffix onto the decompressor that undoes it.
var compressed = map[string]func(io.Reader) (io.ReadCloser, error){
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	".zst": func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	},
	".xz": func(r io.Reader) (io.ReadCloser, error) {
		x, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(x), nil
	},
}

// IsCompressed reports whether path carries a supported compression suffix.
func IsCompressed(path string) bool {
	_, ok := compressed[strings.ToLower(filepath.Ext(path))]
	return ok
}

// TrimCompressionExt removes a supported compression suffix from path.
func TrimCompressionExt(path string) string {
	if IsCompressed(path) {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// Source is a DAT file plus the encoding it is decoded with.
type Source struct {
	Path     string
	Encoding charset.Encoding
}

// New returns a Source for path.
func New(path string, enc charset.Encoding) Source {
	return Source{Path: path, Encoding: enc}
}

// Open starts a fresh pass over the file.
func (s Source) Open() (*Pass, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}

	var total int64
	if st, err := f.Stat(); err == nil {
		total = st.Size()
	}
	counter := NewCountingReader(f, total)

	p := &Pass{
		path:    s.Path,
		file:    f,
		counter: counter,
	}

	var raw io.Reader = counter
	if open, ok := compressed[strings.ToLower(filepath.Ext(s.Path))]; ok {
		rc, err := open(counter)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("decompress %s: %w", filepath.Base(s.Path), err)
		}
		p.decomp = rc
		raw = rc
	}

	text, err := charset.NewReader(raw, s.Encoding)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.tok = dat.NewTokenizer(text)
	return p, nil
}

// OpenRaw opens path and undoes any compression, without decoding. It is the
// byte stream encoding detection should look at.
func OpenRaw(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	open, ok := compressed[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return f, nil
	}
	rc, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
	}
	return &stackedCloser{ReadCloser: rc, under: f}, nil
}

type stackedCloser struct {
	io.ReadCloser
	under io.Closer
}

func (s *stackedCloser) Close() error {
	return errors.Join(s.ReadCloser.Close(), s.under.Close())
}

// Pass is one sequential read of a Source. The first logical line is the
// header; Next and NextRow return the records after it.
type Pass struct {
	path    string
	file    *os.File
	decomp  io.ReadCloser
	counter *CountingReader
	tok     *dat.Tokenizer

	header     dat.Header
	headerRead bool
}

// Path returns the file this pass reads.
func (p *Pass) Path() string { return p.path }

// Header returns the header record, reading it on first use.
func (p *Pass) Header() (dat.Header, error) {
	if p.headerRead {
		return p.header, nil
	}
	line, err := p.tok.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p.path), ErrEmptyFile)
	}
	if err != nil {
		return nil, err
	}
	p.header = dat.ParseHeader(line)
	p.headerRead = true
	return p.header, nil
}

// Next returns the next data record as a raw logical line, or io.EOF.
func (p *Pass) Next() (string, error) {
	if _, err := p.Header(); err != nil {
		return "", err
	}
	return p.tok.Next()
}

// Line returns the logical line number of the last line read; the header is
// line 1.
func (p *Pass) Line() int { return p.tok.Line() }

// NextRow returns the next record parsed against the header. A malformed
// record yields a *dat.FieldCountError with its line number set; the pass can
// continue after it.
func (p *Pass) NextRow() (dat.Row, error) {
	line, err := p.Next()
	if err != nil {
		return dat.Row{}, err
	}
	row, err := dat.ParseLine(line, p.header)
	if err != nil {
		var fce *dat.FieldCountError
		if errors.As(err, &fce) {
			fce.Line = p.tok.Line()
		}
		return dat.Row{}, err
	}
	return row, nil
}

// BytesRead returns the number of raw bytes consumed from disk so far.
func (p *Pass) BytesRead() int64 { return p.counter.BytesRead }

// Progress returns read progress as a percentage of the file size.
func (p *Pass) Progress() int { return p.counter.Progress() }

// Close releases the file handle and decompressor.
func (p *Pass) Close() error {
	var errs []error
	if p.decomp != nil {
		errs = append(errs, p.decomp.Close())
	}
	if p.file != nil {
		errs = append(errs, p.file.Close())
	}
	return errors.Join(errs...)
}
