package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/datops/internal/dat"
)

// Select projects a file onto the requested fields, in header order. Names
// not in the header are ignored and reported as warnings.
func (s *Service) Select(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	res := &SelectResult{}
	err := s.run(ctx, OpSelect, []string{req.File}, &res.Summary, func(log *slog.Logger) error {
		return s.selectFields(ctx, log, req, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) selectFields(ctx context.Context, log *slog.Logger, req SelectRequest, res *SelectResult) error {
	var want []string
	for _, f := range req.Fields {
		if f = strings.TrimSpace(f); f != "" {
			want = append(want, f)
		}
	}
	if len(want) == 0 {
		return ErrEmptySelection
	}

	src, err := s.open(req.File, req.Input)
	if err != nil {
		return err
	}
	h, err := readHeader(src)
	if err != nil {
		return err
	}

	idx := h.Project(want)
	if len(idx) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFieldsSelected, strings.Join(want, ", "))
	}

	out := make(dat.Header, len(idx))
	for i, j := range idx {
		out[i] = h[j]
	}
	res.Fields = out
	for _, name := range want {
		if !h.Has(name) {
			res.Ignored = append(res.Ignored, name)
		}
	}
	if len(res.Ignored) > 0 {
		msg := fmt.Sprintf("ignored fields not in header: %s", strings.Join(res.Ignored, ", "))
		log.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}

	ext, err := s.outputExt(req.Output)
	if err != nil {
		return err
	}
	res.Output = OutputPath(req.File, req.Output.Dir, "select", ext)
	return s.rewrite(ctx, log, src, res.Output, req.Output, out, func(r dat.Row) []string {
		return pick(r.Values, idx)
	}, &res.Summary)
}
