package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/source"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// Delete partitions a file by whether Field's value is one of Values. Rows
// that match go to <base>_removed, the rest to <base>_kept; every input row
// lands in exactly one of them. Requested values that never occur are
// reported as a warning. The file must pass the field-count check first.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.run(ctx, OpDelete, []string{req.File}, &res.Summary, func(log *slog.Logger) error {
		return s.delete(ctx, log, req, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) delete(ctx context.Context, log *slog.Logger, req DeleteRequest, res *DeleteResult) error {
	var values []string
	set := make(map[string]bool)
	for _, v := range req.Values {
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = false
		values = append(values, v)
	}
	if len(values) == 0 {
		return ErrEmptyValueList
	}

	src, err := s.open(req.File, req.Input)
	if err != nil {
		return err
	}

	// pass 1: header and field-count gate
	h, err := validateFile(ctx, src)
	if err != nil {
		if errors.Is(err, ErrSchemaInvalid) {
			res.Excluded = append(res.Excluded, issue(req.File, err))
		}
		return err
	}
	col := h.Index(req.Field)
	if col < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, req.Field)
	}

	ext, err := s.outputExt(req.Output)
	if err != nil {
		return err
	}
	res.KeptPath = OutputPath(req.File, req.Output.Dir, "kept", ext)
	res.RemovedPath = OutputPath(req.File, req.Output.Dir, "removed", ext)

	kept, err := s.createOutput(res.KeptPath, req.Output, req.File)
	if err != nil {
		return err
	}
	removed, err := s.createOutput(res.RemovedPath, req.Output, req.File)
	if err != nil {
		kept.Abort()
		return err
	}

	// pass 2: partition
	if err := partition(ctx, log, src, h, col, set, kept, removed, &res.Summary); err != nil {
		kept.Abort()
		removed.Abort()
		return err
	}
	if err := errors.Join(finish(kept, nil), finish(removed, nil)); err != nil {
		return err
	}

	res.Kept = kept.Rows
	res.Removed = removed.Rows
	res.RowsOut = kept.Rows + removed.Rows
	res.Outputs = append(res.Outputs, res.KeptPath, res.RemovedPath)

	for _, v := range values {
		if !set[v] {
			res.Unobserved = append(res.Unobserved, v)
		}
	}
	if len(res.Unobserved) > 0 {
		msg := fmt.Sprintf("values not found in %s: %s", req.Field, strings.Join(res.Unobserved, ", "))
		log.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}
	return nil
}

// partition writes each row to removed when its col value is a key of set,
// else to kept, and marks the matched keys true.
func partition(ctx context.Context, log *slog.Logger, src source.Source, h dat.Header, col int, set map[string]bool, kept, removed *tabular.File, sum *Summary) error {
	p, _, err := openPass(src)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := errors.Join(kept.WriteHeader(h), removed.WriteHeader(h)); err != nil {
		return err
	}

	rr := newRowReader(ctx, log, p)
	for {
		row, bad, err := rr.next()
		if errors.Is(err, io.EOF) {
			sum.Skipped += rr.skipped()
			return nil
		}
		if err != nil {
			return err
		}
		sum.RowsIn++
		if bad != nil {
			continue
		}

		v := row.Values[col]
		dst := kept
		if _, hit := set[v]; hit {
			set[v] = true
			dst = removed
		}
		if err := dst.Write(row.Values); err != nil {
			return err
		}
	}
}
