package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/JonMunkholm/datops/internal/dat"
)

// fieldPair is one column compared between A and B. name is A's field name.
type fieldPair struct {
	name string
	a, b int
}

// Compare walks two files in lockstep and reports every field that differs
// at the same row position. Rows are not aligned by key: an inserted row in
// one file shifts every later comparison.
//
// Without a field map the headers must be equal. With one, only mapped
// fields present in both headers are compared.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	res := &CompareResult{Diffs: []DiffRecord{}}
	err := s.run(ctx, OpCompare, []string{req.FileA, req.FileB}, &res.Summary, func(log *slog.Logger) error {
		return s.compare(ctx, log, req, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) compare(ctx context.Context, log *slog.Logger, req CompareRequest, res *CompareResult) error {
	srcA, err := s.open(req.FileA, req.Input)
	if err != nil {
		return err
	}
	srcB, err := s.open(req.FileB, req.Input)
	if err != nil {
		return err
	}

	// pass 1: headers
	hA, err := readHeader(srcA)
	if err != nil {
		return err
	}
	hB, err := readHeader(srcB)
	if err != nil {
		return err
	}

	pairs, warnings, err := comparePairs(hA, hB, req.Options.FieldMap)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	res.Warnings = append(res.Warnings, warnings...)

	if req.Options.FieldMap != nil {
		res.Coverage = MappingCoverage(hA, req.Options.FieldMap)
		if res.Coverage < MappingCoverageWarn {
			msg := fmt.Sprintf("field map covers %.0f%% of %s's fields", res.Coverage*100, req.FileA)
			log.Warn(msg, "coverage", res.Coverage)
			res.Warnings = append(res.Warnings, msg)
		}
	}

	// pass 2: rows
	pA, _, err := openPass(srcA)
	if err != nil {
		return err
	}
	defer pA.Close()
	pB, _, err := openPass(srcB)
	if err != nil {
		return err
	}
	defer pB.Close()

	if err := compareRows(newRowReader(ctx, log, pA), newRowReader(ctx, log, pB), pairs, req.Options, res); err != nil {
		return err
	}

	res.RowsIn = res.RowsA + res.RowsB
	res.RowsOut = len(res.Diffs)
	res.Skipped = len(res.SkippedRows)
	if res.RowsA != res.RowsB {
		msg := fmt.Sprintf("row counts differ (%d vs %d); compared the first %d positions",
			res.RowsA, res.RowsB, min(res.RowsA, res.RowsB))
		log.Warn(msg)
		res.Warnings = append(res.Warnings, msg)
	}

	if req.Report != nil {
		path, err := s.writeDiffReport(req.FileA, *req.Report, res.Diffs, req.FileA, req.FileB)
		if err != nil {
			return err
		}
		res.Report = path
		res.Outputs = append(res.Outputs, path)
	}
	return nil
}

// comparePairs decides which columns are compared. Field map entries whose
// names are missing from either header are dropped with a warning.
func comparePairs(hA, hB dat.Header, fieldMap map[string]string) ([]fieldPair, []string, error) {
	if fieldMap == nil {
		if !hA.Equal(hB) {
			return nil, nil, &HeaderMismatchError{A: hA, B: hB}
		}
		pairs := make([]fieldPair, len(hA))
		for i, name := range hA {
			pairs[i] = fieldPair{name: name, a: i, b: i}
		}
		return pairs, nil, nil
	}

	var warnings []string
	for _, old := range slices.Sorted(maps.Keys(fieldMap)) {
		if !hA.Has(old) {
			warnings = append(warnings, fmt.Sprintf("%v: %q is not in the first file's header", ErrMissingMappingTarget, old))
		}
	}

	var pairs []fieldPair
	for i, name := range hA {
		target, ok := fieldMap[name]
		if !ok {
			continue
		}
		j := hB.Index(target)
		if j < 0 {
			warnings = append(warnings, fmt.Sprintf("%v: %q (mapped from %q) is not in the second file's header", ErrMissingMappingTarget, target, name))
			continue
		}
		pairs = append(pairs, fieldPair{name: name, a: i, b: j})
	}

	if len(pairs) == 0 {
		return nil, warnings, fmt.Errorf("%w: no mapped field is present in both headers", ErrHeaderMismatch)
	}
	return pairs, warnings, nil
}

// compareRows advances both readers one row at a time. A position where
// either side is malformed is recorded and skipped. Once the shorter file
// ends, the longer one is drained only to count its rows.
func compareRows(ra, rb *rowReader, pairs []fieldPair, opts CompareOptions, res *CompareResult) error {
	for pos := 0; ; pos++ {
		rowA, badA, errA := ra.next()
		if errA != nil && !errors.Is(errA, io.EOF) {
			return errA
		}
		rowB, badB, errB := rb.next()
		if errB != nil && !errors.Is(errB, io.EOF) {
			return errB
		}

		if errA == nil {
			res.RowsA++
		}
		if errB == nil {
			res.RowsB++
		}
		if errA != nil || errB != nil {
			if errA == nil {
				return drain(ra, &res.RowsA)
			}
			if errB == nil {
				return drain(rb, &res.RowsB)
			}
			return nil
		}

		if badA != nil || badB != nil {
			res.SkippedRows = append(res.SkippedRows, RowPair{
				LineA: ra.pass.Line(),
				LineB: rb.pass.Line(),
			})
			continue
		}

		for _, p := range pairs {
			va, vb := rowA.Values[p.a], rowB.Values[p.b]
			if !opts.Equal(va, vb) {
				res.Diffs = append(res.Diffs, DiffRecord{
					Row:    pos + 2,
					Field:  p.name,
					ValueA: va,
					ValueB: vb,
				})
			}
		}
		res.Compared++
	}
}

func drain(r *rowReader, count *int) error {
	for {
		_, _, err := r.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		*count++
	}
}

// DiffHeader is the header of a compare report.
var DiffHeader = dat.Header{"Row", "Field", "ValueA", "ValueB"}

func (s *Service) writeDiffReport(base string, out OutputOptions, diffs []DiffRecord, inputs ...string) (string, error) {
	ext, err := s.outputExt(out)
	if err != nil {
		return "", err
	}
	f, err := s.createOutput(OutputPath(base, out.Dir, "diff", ext), out, inputs...)
	if err != nil {
		return "", err
	}

	err = f.WriteHeader(DiffHeader)
	for _, d := range diffs {
		if err != nil {
			break
		}
		err = f.Write([]string{strconv.Itoa(d.Row), d.Field, d.ValueA, d.ValueB})
	}
	if err := finish(f, err); err != nil {
		return "", err
	}
	return f.Path, nil
}
