package core

import (
	"context"
	"log/slog"
)

// Convert rewrites a DAT file in another tabular format, one output row per
// well-formed input row. The output goes to <base>_converted.<ext>.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	res := &ConvertResult{}
	err := s.run(ctx, OpConvert, []string{req.File}, &res.Summary, func(log *slog.Logger) error {
		src, err := s.open(req.File, req.Input)
		if err != nil {
			return err
		}
		h, err := readHeader(src)
		if err != nil {
			return err
		}
		ext, err := s.outputExt(req.Output)
		if err != nil {
			return err
		}

		res.Output = OutputPath(req.File, req.Output.Dir, "converted", ext)
		return s.rewrite(ctx, log, src, res.Output, req.Output, h, rowValues, &res.Summary)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
