package core

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/source"
)

// rewrite is the second pass shared by the single-file operations: it streams
// the rows of src, maps each through fn and writes the result under header.
// Malformed rows are skipped and counted.
func (s *Service) rewrite(ctx context.Context, log *slog.Logger, src source.Source, path string, out OutputOptions, header dat.Header, fn func(dat.Row) []string, sum *Summary) error {
	p, _, err := openPass(src)
	if err != nil {
		return err
	}
	defer p.Close()

	f, err := s.createOutput(path, out, src.Path)
	if err != nil {
		return err
	}

	rr := newRowReader(ctx, log, p)
	err = f.WriteHeader(header)
	for err == nil {
		var (
			row dat.Row
			bad *dat.FieldCountError
		)
		row, bad, err = rr.next()
		if err != nil {
			break
		}
		sum.RowsIn++
		if bad != nil {
			continue
		}
		err = f.Write(fn(row))
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err := finish(f, err); err != nil {
		return err
	}

	sum.RowsOut += f.Rows
	sum.Skipped += rr.skipped()
	sum.Outputs = append(sum.Outputs, f.Path)
	return nil
}

// pick returns values at the given positions.
func pick(values []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func rowValues(r dat.Row) []string { return r.Values }
