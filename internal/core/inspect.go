package core

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/JonMunkholm/datops/internal/dat"
)

// Inspect describes a file without writing anything: its detected encoding,
// header, schema key, row count and the first few malformed rows.
func (s *Service) Inspect(ctx context.Context, req InspectRequest) (*InspectResult, error) {
	res := &InspectResult{Path: req.File}
	err := s.run(ctx, OpInspect, []string{req.File}, &res.Summary, func(log *slog.Logger) error {
		src, err := s.open(req.File, req.Input)
		if err != nil {
			return err
		}
		res.Encoding = src.Encoding.String()

		p, h, err := openPass(src)
		if err != nil {
			return err
		}
		defer p.Close()

		res.Header = h
		res.SchemaKey = dat.SchemaKey(h)

		// malformed rows are the point of inspect; don't log each one
		rr := newRowReader(ctx, slog.New(slog.DiscardHandler), p)
		for {
			_, bad, err := rr.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return &FileError{Path: req.File, Err: err}
			}
			res.Rows++
			if bad == nil {
				continue
			}
			res.Malformed++
			if len(res.Samples) < MaxInspectSamples {
				res.Samples = append(res.Samples, RowIssue{
					Line:     bad.Line,
					Expected: bad.Expected,
					Actual:   bad.Actual,
				})
			}
		}
		res.Bytes = p.BytesRead()
		res.RowsIn = res.Rows
		res.Skipped = res.Malformed

		log.Info("file inspected",
			"file", req.File,
			"encoding", res.Encoding,
			"fields", len(h),
			"rows", res.Rows,
			"malformed", res.Malformed,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
