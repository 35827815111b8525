package tabular

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/datops/internal/dat"
)

// ErrOutputExists is returned by Create when the target exists and overwriting
// was not requested.
var ErrOutputExists = errors.New("output file already exists")

// File is a Writer bound to an output file it owns.
type File struct {
	Path string
	Rows int // data rows written, header excluded

	f *os.File
	w Writer
}

// Create opens path for writing in the given format. Unless overwrite is set
// an existing file is left untouched and ErrOutputExists is returned.
func Create(path string, spec Spec, overwrite bool) (*File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return nil, err
	}
	return &File{Path: path, f: f, w: spec.New(f)}, nil
}

func (o *File) WriteHeader(h dat.Header) error {
	return o.w.WriteHeader(h)
}

func (o *File) Write(values []string) error {
	if err := o.w.Write(values); err != nil {
		return err
	}
	o.Rows++
	return nil
}

// Close flushes the format writer and closes the file.
func (o *File) Close() error {
	return errors.Join(o.w.Close(), o.f.Close())
}

// Abort closes and removes a partially written file.
func (o *File) Abort() {
	o.f.Close()
	os.Remove(o.Path)
}
