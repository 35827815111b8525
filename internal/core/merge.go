package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/source"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// Merge concatenates files that share a schema. Every input is validated
// first; files that are missing, undetectable or malformed are excluded and
// reported, and the rest are grouped by schema key. Each group is written to
// merged_<n>_<key>.<ext> with the header of its first file, files in request
// order and rows in their original order.
func (s *Service) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	res := &MergeResult{Groups: []MergeGroup{}}
	err := s.run(ctx, OpMerge, req.Files, &res.Summary, func(log *slog.Logger) error {
		return s.merge(ctx, log, req, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type mergeInput struct {
	src source.Source
	key string
}

func (s *Service) merge(ctx context.Context, log *slog.Logger, req MergeRequest, res *MergeResult) error {
	if len(req.Files) == 0 {
		return ErrNoInputs
	}

	// pass 1: validate and group
	var (
		groups []*MergeGroup
		byKey  = map[string]*MergeGroup{}
		inputs []mergeInput
	)
	for _, path := range req.Files {
		src, err := s.open(path, req.Input)
		var h dat.Header
		if err == nil {
			h, err = validateFile(ctx, src)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn("excluding file from merge", "file", path, "error", err)
			res.Excluded = append(res.Excluded, issue(path, err))
			continue
		}

		key := dat.SchemaKey(h)
		g, ok := byKey[key]
		if !ok {
			g = &MergeGroup{SchemaKey: key, Header: h}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Files = append(g.Files, path)
		inputs = append(inputs, mergeInput{src: src, key: key})
	}

	if len(groups) == 0 {
		return fmt.Errorf("%w: all %d files were excluded", ErrNoInputs, len(req.Files))
	}

	ext, err := s.outputExt(req.Output)
	if err != nil {
		return err
	}

	// pass 2: write each group
	for n, g := range groups {
		dir := req.Output.Dir
		if dir == "" {
			dir = filepath.Dir(g.Files[0])
		}
		g.Output = filepath.Join(dir, fmt.Sprintf("merged_%d_%s.%s", n+1, dat.ShortKey(g.SchemaKey), ext))

		out, err := s.createOutput(g.Output, req.Output, req.Files...)
		if err != nil {
			return err
		}
		err = out.WriteHeader(g.Header)
		for _, in := range inputs {
			if err != nil {
				break
			}
			if in.key == g.SchemaKey {
				err = s.appendRows(ctx, log, in.src, out, &res.Summary)
			}
		}
		if err := finish(out, err); err != nil {
			return err
		}

		g.Rows = out.Rows
		res.RowsOut += out.Rows
		res.Outputs = append(res.Outputs, g.Output)
		res.Groups = append(res.Groups, *g)
		log.Info("merge group written",
			"schema_key", dat.ShortKey(g.SchemaKey),
			"files", len(g.Files),
			"rows", g.Rows,
			"output", g.Output,
		)
	}
	return nil
}

// appendRows streams every row of src into out.
func (s *Service) appendRows(ctx context.Context, log *slog.Logger, src source.Source, out *tabular.File, sum *Summary) error {
	p, _, err := openPass(src)
	if err != nil {
		return err
	}
	defer p.Close()

	rr := newRowReader(ctx, log, p)
	for {
		row, bad, err := rr.next()
		if errors.Is(err, io.EOF) {
			sum.Skipped += rr.skipped()
			return nil
		}
		if err != nil {
			return &FileError{Path: src.Path, Err: err}
		}
		sum.RowsIn++
		if bad != nil {
			continue
		}
		if err := out.Write(row.Values); err != nil {
			return err
		}
	}
}
