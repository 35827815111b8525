package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/source"
)

// rowReader streams the data rows of one pass. Malformed records are returned
// separately from fatal errors so callers can skip them and keep going.
type rowReader struct {
	ctx  context.Context
	pass *source.Pass
	warn rowWarner
	n    int
}

func newRowReader(ctx context.Context, log *slog.Logger, p *source.Pass) *rowReader {
	return &rowReader{
		ctx:  ctx,
		pass: p,
		warn: rowWarner{log: log, path: p.Path()},
	}
}

// next returns the next row, or a non-nil *dat.FieldCountError for a
// malformed record, or io.EOF when the pass is exhausted.
func (r *rowReader) next() (dat.Row, *dat.FieldCountError, error) {
	r.n++
	if r.n%ctxCheckEveryRows == 0 {
		if err := r.ctx.Err(); err != nil {
			return dat.Row{}, nil, err
		}
	}

	row, err := r.pass.NextRow()
	if err == nil {
		return row, nil, nil
	}
	var fce *dat.FieldCountError
	if errors.As(err, &fce) {
		r.warn.warn(fce)
		return dat.Row{}, fce, nil
	}
	return dat.Row{}, nil, err
}

// skipped returns the number of malformed records seen so far.
func (r *rowReader) skipped() int { return r.warn.count }

// openPass opens a fresh pass and consumes its header.
func openPass(src source.Source) (*source.Pass, dat.Header, error) {
	p, err := src.Open()
	if err != nil {
		return nil, nil, &FileError{Path: src.Path, Err: err}
	}
	h, err := p.Header()
	if err != nil {
		p.Close()
		return nil, nil, &FileError{Path: src.Path, Err: err}
	}
	return p, h, nil
}
