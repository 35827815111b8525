package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/dat"
	"github.com/JonMunkholm/datops/internal/logging"
	"github.com/JonMunkholm/datops/internal/source"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// Defaults used when OutputOptions leave a field empty.
const (
	DefaultFormat     = "csv"
	maxRowWarnings    = 100  // per file, further malformed rows are only counted
	ctxCheckEveryRows = 1024 // how often long loops look at ctx
)

// Service runs batch operations over DAT files. It is safe for concurrent use;
// every operation opens its own passes and shares nothing but the history
// store and the limiter.
type Service struct {
	detector charset.Detector
	history  HistoryStore
	limiter  *Limiter
	format   string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDetector replaces the default encoding sniffer.
func WithDetector(d charset.Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithHistory records every run in h.
func WithHistory(h HistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithLimiter bounds concurrent operations.
func WithLimiter(l *Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithDefaultFormat sets the output format used when a request names none.
func WithDefaultFormat(name string) Option {
	return func(s *Service) { s.format = name }
}

// NewService returns a Service that sniffs encodings from the first 64 KiB of
// each file and keeps no history.
func NewService(opts ...Option) *Service {
	sniffer := charset.NewSniffer(charset.DefaultSampleBytes)
	sniffer.Open = source.OpenRaw

	s := &Service{
		detector: sniffer,
		history:  NopHistory{},
		format:   DefaultFormat,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the configured history store.
func (s *Service) History() HistoryStore { return s.history }

// Limiter returns the configured limiter, or nil.
func (s *Service) Limiter() *Limiter { return s.limiter }

// run wraps one operation: it assigns the run id, holds a limiter slot,
// times the work, logs start and end, and records the run in history.
func (s *Service) run(ctx context.Context, op string, inputs []string, sum *Summary, fn func(log *slog.Logger) error) error {
	sum.RunID = uuid.NewString()
	sum.Operation = op
	log := logging.WithFields(ctx, "run_id", sum.RunID, "operation", op)

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, op); err != nil {
			log.Warn("operation rejected", "error", err)
			return err
		}
		defer s.limiter.Release(op)
	}

	started := s.now()
	log.Info("operation started", "inputs", inputs)

	err := fn(log)
	sum.Duration = time.Since(started)

	rec := RunRecord{
		ID:         sum.RunID,
		Operation:  op,
		Inputs:     inputs,
		Outputs:    sum.Outputs,
		Status:     StatusOK,
		RowsIn:     sum.RowsIn,
		RowsOut:    sum.RowsOut,
		Excluded:   sum.Excluded,
		RemoteAddr: RemoteAddrFromContext(ctx),
		UserAgent:  UserAgentFromContext(ctx),
		StartedAt:  started,
		Duration:   sum.Duration,
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		log.Error("operation failed", "error", err, "duration_ms", sum.Duration.Milliseconds())
	} else {
		log.Info("operation completed",
			"rows_in", sum.RowsIn,
			"rows_out", sum.RowsOut,
			"rows_skipped", sum.Skipped,
			"excluded", len(sum.Excluded),
			"duration_ms", sum.Duration.Milliseconds(),
		)
	}

	// history is best-effort; a failed insert must not fail the operation
	if herr := s.history.Record(context.WithoutCancel(ctx), rec); herr != nil {
		log.Warn("recording run history failed", "error", herr)
	}
	return err
}

// open resolves the encoding of path and returns a Source for it. A forced
// encoding skips detection.
func (s *Service) open(path string, in InputOptions) (source.Source, error) {
	if _, err := os.Stat(path); err != nil {
		return source.Source{}, &FileError{Path: path, Err: err}
	}

	if in.Encoding != "" {
		enc, err := charset.Parse(in.Encoding)
		if err != nil {
			return source.Source{}, err
		}
		return source.New(path, enc), nil
	}

	enc, err := s.detector.Detect(path)
	if err != nil {
		return source.Source{}, &FileError{Path: path, Err: err}
	}
	return source.New(path, enc), nil
}

// readHeader runs a header-only first pass.
func readHeader(src source.Source) (dat.Header, error) {
	p, h, err := openPass(src)
	if err != nil {
		return nil, err
	}
	p.Close()
	return h, nil
}

// validateFile runs a full first pass: header plus field-count check of every
// record. A mismatch is reported as ErrSchemaInvalid wrapping the row error.
func validateFile(ctx context.Context, src source.Source) (dat.Header, error) {
	p, h, err := openPass(src)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := dat.Validate(&ctxLines{ctx: ctx, src: p}, h); err != nil {
		if errors.Is(err, dat.ErrFieldCountMismatch) {
			err = fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
		}
		return nil, &FileError{Path: src.Path, Err: err}
	}
	return h, nil
}

// ctxLines stops a line source when ctx is done.
type ctxLines struct {
	ctx context.Context
	src dat.LineSource
	n   int
}

func (c *ctxLines) Next() (string, error) {
	c.n++
	if c.n%ctxCheckEveryRows == 0 {
		if err := c.ctx.Err(); err != nil {
			return "", err
		}
	}
	return c.src.Next()
}

func (c *ctxLines) Line() int { return c.src.Line() }

// rowWarner logs malformed rows, up to maxRowWarnings per file.
type rowWarner struct {
	log   *slog.Logger
	path  string
	count int
}

func (w *rowWarner) warn(err error) {
	w.count++
	var fce *dat.FieldCountError
	if !errors.As(err, &fce) {
		return
	}
	switch {
	case w.count <= maxRowWarnings:
		w.log.Warn("skipping malformed row",
			"file", w.path,
			"line", fce.Line,
			"expected", fce.Expected,
			"actual", fce.Actual,
		)
	case w.count == maxRowWarnings+1:
		w.log.Warn("further malformed rows in this file are counted but not logged", "file", w.path)
	}
}

// issue builds a FileIssue for an excluded input.
func issue(path string, err error) FileIssue {
	return FileIssue{Path: path, Reason: err.Error(), Code: MapError(err).Code, Err: err}
}

// OutputPath derives <dir>/<base>_<suffix>.<ext>. dir defaults to the input's
// directory; base is the input name without compression and format suffixes.
func OutputPath(input, dir, suffix, ext string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(source.TrimCompressionExt(input))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_"+suffix+"."+ext)
}

// createOutput opens an output file for the requested format. It refuses to
// write over any of the operation's inputs.
func (s *Service) createOutput(path string, out OutputOptions, inputs ...string) (*tabular.File, error) {
	for _, in := range inputs {
		if sameFile(path, in) {
			return nil, fmt.Errorf("output %s would overwrite an input: %w", path, ErrOutputExists)
		}
	}
	spec, err := tabular.Lookup(s.formatName(out))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return tabular.Create(path, spec, out.Overwrite)
}

// outputExt returns the extension for the requested format.
func (s *Service) outputExt(out OutputOptions) (string, error) {
	spec, err := tabular.Lookup(s.formatName(out))
	if err != nil {
		return "", err
	}
	return spec.Ext, nil
}

func (s *Service) formatName(out OutputOptions) string {
	if out.Format != "" {
		return out.Format
	}
	return s.format
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	sa, errA := os.Stat(a)
	sb, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(sa, sb)
}

// finish closes out, removing the file if the operation failed.
func finish(out *tabular.File, err error) error {
	if err != nil {
		out.Abort()
		return err
	}
	if cerr := out.Close(); cerr != nil {
		os.Remove(out.Path)
		return cerr
	}
	return nil
}
