package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/source"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// Error taxonomy. Lower layers own some of these; they are re-exported here so
// callers only need to import core to classify an error.
var (
	ErrEncodingUndetermined = charset.ErrUndetermined
	ErrFieldCountMismatch   = dat.ErrFieldCountMismatch
	ErrEmptyFile            = source.ErrEmptyFile
	ErrOutputExists         = tabular.ErrOutputExists

	ErrSchemaInvalid        = errors.New("schema invalid")
	ErrHeaderMismatch       = errors.New("header mismatch")
	ErrMissingMappingTarget = errors.New("mapping source field not in header")
	ErrFieldNotFound        = errors.New("field not found in header")
	ErrEmptyValueList       = errors.New("no values to delete")
	ErrEmptySelection       = errors.New("no fields to select")
	ErrNoFieldsSelected     = errors.New("none of the requested fields are in the header")
	ErrNoInputs             = errors.New("no input files")
	ErrPathNotAllowed       = errors.New("path outside data root")
	ErrInvalidMapping       = errors.New("invalid mapping line")
)

// FileError ties an error to the input file it concerns.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// HeaderMismatchError describes how two headers differ.
type HeaderMismatchError struct {
	A, B dat.Header
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("header mismatch: %d fields vs %d fields", len(e.A), len(e.B))
}

func (e *HeaderMismatchError) Is(target error) bool {
	return target == ErrHeaderMismatch
}
