package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/datops/internal/dat"
)

// ReplaceHeader renames header fields by exact, case-sensitive name and
// copies the rows unchanged. Unless a format is requested the output is DAT.
// Mapping entries whose old name is not in the header are reported, not fatal.
func (s *Service) ReplaceHeader(ctx context.Context, req ReplaceHeaderRequest) (*ReplaceHeaderResult, error) {
	res := &ReplaceHeaderResult{}
	err := s.run(ctx, OpReplaceHeader, []string{req.File}, &res.Summary, func(log *slog.Logger) error {
		return s.replaceHeader(ctx, log, req, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) replaceHeader(ctx context.Context, log *slog.Logger, req ReplaceHeaderRequest, res *ReplaceHeaderResult) error {
	if len(req.Mapping) == 0 {
		return fmt.Errorf("%w: mapping is empty", ErrInvalidMapping)
	}
	m, err := NewMapping(req.Mapping)
	if err != nil {
		return err
	}

	src, err := s.open(req.File, req.Input)
	if err != nil {
		return err
	}
	h, err := readHeader(src)
	if err != nil {
		return err
	}

	renamed := make(dat.Header, len(h))
	for i, name := range h {
		renamed[i] = name
		if to, ok := m.Lookup(name); ok {
			renamed[i] = to
		}
	}
	res.Header = renamed

	for _, p := range m.Pairs {
		if !h.Has(p.Old) {
			res.Absent = append(res.Absent, p.Old)
		}
	}
	if len(res.Absent) > 0 {
		msg := fmt.Sprintf("%v: %s", ErrMissingMappingTarget, strings.Join(res.Absent, ", "))
		log.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}

	out := req.Output
	if out.Format == "" {
		out.Format = "dat"
	}
	ext, err := s.outputExt(out)
	if err != nil {
		return err
	}
	res.Output = OutputPath(req.File, out.Dir, "header", ext)
	return s.rewrite(ctx, log, src, res.Output, out, renamed, rowValues, &res.Summary)
}
