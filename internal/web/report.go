package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/web/templates"
)

// maxReportRows caps the diff rows rendered into the HTML page.
const maxReportRows = 2000

// handleCompareReport renders a compare as an HTML page.
//
//	GET /report/compare?a=x.dat&b=y.dat&trim=1&case=1&numeric=1
func (s *Server) handleCompareReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := core.CompareRequest{
		FileA: q.Get("a"),
		FileB: q.Get("b"),
		Options: core.CompareOptions{
			TrimSpaces:      flag(q.Get("trim")),
			CaseInsensitive: flag(q.Get("case")),
			Numeric:         flag(q.Get("numeric")),
		},
		Input: core.InputOptions{Encoding: q.Get("encoding")},
	}
	if err := s.resolveAll(&req.FileA, &req.FileB); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Compare(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page := templates.CompareReport{
		FileA:    s.relative(req.FileA),
		FileB:    s.relative(req.FileB),
		RunID:    res.RunID,
		RowsA:    res.RowsA,
		RowsB:    res.RowsB,
		Compared: res.Compared,
		Skipped:  len(res.SkippedRows),
		Warnings: res.Warnings,
		Total:    len(res.Diffs),
	}
	diffs := res.Diffs
	if len(diffs) > maxReportRows {
		diffs = diffs[:maxReportRows]
	}
	for _, d := range diffs {
		page.Diffs = append(page.Diffs, templates.DiffRow{
			Row:    d.Row,
			Field:  d.Field,
			ValueA: d.ValueA,
			ValueB: d.ValueB,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Page().Render(r.Context(), w); err != nil {
		slog.Error("render compare report", "error", err)
	}
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
